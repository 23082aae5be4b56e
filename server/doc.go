// Package server implements method routing and the closed tool set of the
// gateway.
//
// A Server answers initialize, tools/list, tools/call, resources/list,
// resources/read and prompts/list. Any other method fails with -32601.
//
//	registry := server.NewRegistry(todoStore, purchaseLog)
//	srv := server.New(server.DefaultInfo, registry)
//	resp, err := srv.Handle(ctx, req)
//
// # Tools
//
// The registry holds echo, add, add_todo and purchase in that order. Each
// tool decodes its arguments into its own struct (EchoArgs, AddArgs,
// AddTodoArgs, PurchaseArgs); Registry.Invoke switches on that type.
// Argument decoding is lenient: optional values of the wrong type fall back
// to their defaults, and only a missing required string is rejected.
//
// add_todo and purchase reach storage through the TodoStore and PurchaseLog
// interfaces. Their failures surface as -32603 errors with the messages
// "Database connection error: ...", "Database insert error: ..." and
// "Purchase log error: ...".
package server
