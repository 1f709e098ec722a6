// Package config loads the weave CLI configuration.
//
// Values are layered: built-in defaults, then an optional weave.json in the
// working directory, then WEAVE_* environment variables. Command flags are
// applied last by the CLI.
//
// # Configuration File Structure
//
//	{
//	  "addr": ":7070",
//	  "log": {"level": "debug", "format": "json", "file": "weave.log"},
//	  "metrics": {"enabled": true, "namespace": "weave"},
//	  "bench": {"items": 10000, "rounds": 50}
//	}
//
// # Environment
//
//	WEAVE_ADDR, WEAVE_LOG_LEVEL, WEAVE_LOG_FORMAT, WEAVE_LOG_FILE,
//	WEAVE_METRICS, WEAVE_METRICS_NAMESPACE, WEAVE_BENCH_ITEMS,
//	WEAVE_BENCH_ROUNDS
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Inspector:", cfg.Addr)
package config
