// Package idintake embeds the identity-document intake pipeline in a Go program.
//
// The client reads text from an ID card image through an Azure-style Read
// endpoint, extracts holder fields from the recognized lines, and resolves
// free-text place names against a province → city → barangay reference
// stored in PostgreSQL or an embedded SQLite file.
//
//	client, err := idintake.New(ctx,
//	    idintake.WithRecognizer("https://example.cognitiveservices.azure.com", key),
//	    idintake.WithSQLite("places.db"),
//	    idintake.WithMigrate(),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	scan, err := client.Scan(ctx, jpegBytes)
//	res := client.ResolveAddress(ctx, idintake.AddressInput{
//	    Province: "Pampanga", City: "Mabalacat", Barangay: "Atlu",
//	})
//
// Without WithRecognizer the client still extracts fields from lines and
// resolves addresses; Scan returns ErrRecognizerNotConfigured.
package idintake
