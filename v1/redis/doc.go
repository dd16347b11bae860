// Package redis provides the Redis connection used as a shared, cross-process
// schema cache by the schema registry client.
//
// Schemas are immutable per id, so entries are stored without expiry and any
// number of processes can share them. Only the small set of commands that
// cache needs is wrapped; Client exposes the full go-redis API.
//
//	client, err := redis.NewClient(redis.Config{Host: "localhost", Port: 6379})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := schema_registry.NewRedisStore(client, "topicstream")
//
// Operations are reported to an observability.Observer when one is set with
// WithObserver, using component "redis" and the key as resource.
package redis
