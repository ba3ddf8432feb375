package main

import (
	"runtime"

	"github.com/nvr-ai/go-silhouette/cmd"
)

func init() {
	// Window calls must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	cmd.Execute()
}
