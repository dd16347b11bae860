// Package environment defines the deployment environments a process can run in.
//
// An Environment is a plain value. It is loaded once at startup (usually from
// APP_ENV) and then passed explicitly to whatever needs it, for example topic
// name resolution in the topic and pipeline packages. Nothing in this module
// reads the environment from global state.
//
// Basic Usage:
//
//	import "github.com/Aleph-Alpha/topicstream/v1/environment"
//
//	env, err := environment.Parse("staging")
//	if err != nil {
//	    log.Fatal(err) // environment.ErrUnknownEnvironment
//	}
//
// Loading from the process environment:
//
//	cfg, err := environment.LoadConfig() // reads APP_ENV
//	if err != nil {
//	    log.Fatal(err)
//	}
//	env, err := cfg.Environment()
//
// Using with FX:
//
//	app := fx.New(
//	    environment.FXModule, // provides environment.Environment from APP_ENV
//	    // other modules...
//	)
//
// Only five values are recognised: development, local, production, staging and
// testing. Any other value is rejected with ErrUnknownEnvironment; there is no
// fallback environment.
package environment
