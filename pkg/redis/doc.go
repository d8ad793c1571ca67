// Package redis opens the Redis client shared by the session store and the
// search result cache.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	store := session.NewRedisStore(client)
package redis
