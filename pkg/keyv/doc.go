// Package keyv is a unified key-value storage facade: a single client type
// whose persistence is delegated to a pluggable storage adapter (in-memory,
// Redis, Postgres, MySQL, SQLite, MongoDB, bbolt).
//
// Values of any JSON-encodable type round-trip through a backend-neutral
// encoding, and every backend honors the same time-to-live contract: an entry
// past its deadline is never visible to a read, whether or not the backend
// has physically deleted it yet. Stale entries found during a read are
// removed best-effort in the background.
//
// Example usage:
//
//	store := memory.NewStore()
//	client, err := keyv.New(store,
//		keyv.WithNamespace("sessions"),
//		keyv.WithDefaultTTL(time.Hour))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	if err := client.Set(ctx, "user:42", profile); err != nil {
//		log.Fatal(err)
//	}
//
//	var restored Profile
//	found, err := client.Get(ctx, "user:42", &restored)
//
// Adapters register themselves when imported, so a backend can also be chosen
// by name through a Config:
//
//	import _ "github.com/chrisllontop/keyv-go/pkg/adapter/redis"
//
//	cfg, err := keyv.LoadConfig("KEYV")
//	store, err := keyv.Open(*cfg)
package keyv
