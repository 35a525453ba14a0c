// Package ragcore embeds the retrieval-augmented knowledge base
// in-process: the same ingestion and retrieval services the HTTP
// server exposes, wired directly against the store without a network
// hop.
//
// A client connects to a Redis or Valkey deployment with the search
// module loaded and needs an embedding provider, either the built-in
// OpenAI-compatible adapter or a custom Embedder:
//
//	client, _ := ragcore.New(
//	    ragcore.WithRedis("localhost:6379"),
//	    ragcore.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	)
//	defer client.Close()
//
//	colls := client.Collections("owner-1")
//	_, _ = colls.Create(ctx, "docs")
//
//	files := client.Files("owner-1")
//	_, _ = files.Ingest(ctx, ragcore.IngestRequest{
//	    Collection:   "docs",
//	    OriginalName: "raft.pdf",
//	    StorageRef:   "/data/uploads/raft.pdf",
//	})
//
//	res, _ := client.Query(ctx, "owner-1", "docs", "how does leader election work?", nil)
//
// Ingestion runs on a background worker pool started by New; poll the
// file status or register a WithEventSink callback to observe progress.
package ragcore
