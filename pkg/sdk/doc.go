// Package staysearch embeds the room search engine in a Go program.
//
// The client reads rooms from a SQL document store (Postgres or SQLite),
// keeps one embedding per room in Redis, Valkey or process memory, and
// answers natural-language queries by brute-force dot-product ranking.
//
//	client, _ := staysearch.New(ctx,
//	    staysearch.WithMemory(0),
//	    staysearch.WithSQLite("file:rooms.db"),
//	    staysearch.WithEmbedder(myEmbedder),
//	    staysearch.WithVectorDimensions(1024),
//	)
//	defer client.Close()
//
//	_ = client.Rooms().Put(ctx, staysearch.Room{ID: "r1", Name: "Loft", Price: 120})
//	_, _ = client.Rooms().IndexAll(ctx)
//	hits, _ := client.Rooms().Search(ctx, "quiet loft near the park",
//	    staysearch.MaxPrice(150), staysearch.Limit(3))
package staysearch
