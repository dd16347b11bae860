// Package deadletter keeps messages that a pipeline.Consumer failed to decode
// or handle.
//
// Hook adapts a Store to pipeline.ErrorHook; each failure becomes a Record
// with the message's topic, position, key, body, headers, envelope schema id
// and error text. PostgresStore keeps records in the dead_letters table
// through the postgres package. Replayer sends a stored record back to its
// physical topic and removes it once the broker accepts it.
//
//	store := deadletter.NewPostgresStore(pg)
//	if err := store.Migrate(ctx); err != nil {
//		return err
//	}
//	consumer := pipeline.NewConsumer(b, registry, env).
//		WithErrorHook(deadletter.Hook(store, log))
//
// FXModule wires the same pieces; pipeline.FXModule picks the hook up.
package deadletter
