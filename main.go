package main

import (
	"log/slog"
	"os"

	"confbid/api"
)

func main() {
	args := ParseArgs()
	if !args.Validate() {
		panic("missing arguments")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: args.Level()})))

	server, err := api.NewServer(args.ServerConfig)
	if err != nil {
		panic(err)
	}
	server.Start()
	defer server.Close()

	router := server.NewRouter()
	if err := router.Run(args.ServerURL); err != nil {
		slog.Error("Server stopped", slog.Any("error", err))
	}
}
