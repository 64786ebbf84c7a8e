// Package server is the HTTP layer in front of the cron validator and the
// DAG config builder.
//
// Routes:
//   - POST /validate_cron    {cron}                                  -> {valid, message, field?, token?, description?}
//   - POST /generate_config  {dag_config, custom_objects, tasks, format?} -> {success, config, config_object} | {success:false, errors}
//   - GET  /task_templates, /cron_options, /healthz
//   - GET  /metrics and pprof under a prefix when enabled
//
// The handler tree is rebuilt on Reload and swapped atomically, so config
// changes (metrics, pprof, rate limits, builder defaults) apply without
// dropping the listener.
package server
