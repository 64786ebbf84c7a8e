// Package catalog holds the static pick-lists offered next to the form:
// quick cron schedules and task-type parameter templates.
package catalog

// CronOption is a labelled quick-pick schedule.
type CronOption struct {
	Key   string `json:"key"`
	Expr  string `json:"cron"`
	Label string `json:"label"`
}

// Every entry must pass cron.Validate.
var cronOptions = []CronOption{
	{Key: "daily_midnight", Expr: "0 0 * * *", Label: "Daily at midnight"},
	{Key: "daily_6am", Expr: "0 6 * * *", Label: "Daily at 6:00 AM"},
	{Key: "daily_9am", Expr: "0 9 * * *", Label: "Daily at 9:00 AM"},
	{Key: "hourly", Expr: "0 * * * *", Label: "Every hour"},
	{Key: "every_30min", Expr: "*/30 * * * *", Label: "Every 30 minutes"},
	{Key: "every_15min", Expr: "*/15 * * * *", Label: "Every 15 minutes"},
	{Key: "weekdays_9am", Expr: "0 9 * * 1-5", Label: "Weekdays at 9:00 AM"},
	{Key: "weekly_monday", Expr: "0 9 * * 1", Label: "Mondays at 9:00 AM"},
	{Key: "monthly_1st", Expr: "0 9 1 * *", Label: "First day of the month at 9:00 AM"},
}

// CronOptions returns the quick-pick schedules in display order.
func CronOptions() []CronOption {
	return append([]CronOption(nil), cronOptions...)
}

// TaskTemplates returns the default parameters per task type. The result is
// freshly built on each call and may be modified by the caller.
func TaskTemplates() map[string]map[string]any {
	return map[string]map[string]any{
		"BashOperator": {
			"bash_command": "",
			"env":          map[string]any{},
			"cwd":          nil,
		},
		"PythonOperator": {
			"python_callable": "",
			"op_args":         []any{},
			"op_kwargs":       map[string]any{},
		},
		"EmailOperator": {
			"to":           "",
			"subject":      "",
			"html_content": "",
			"files":        []any{},
		},
		"HttpSensor": {
			"endpoint":       "",
			"request_params": map[string]any{},
			"timeout":        20,
			"poke_interval":  60,
		},
		"SqlOperator": {
			"sql":     "",
			"conn_id": "default_db",
		},
	}
}
