// Command hdcdevice runs (or simulates) an HDC device: the protocol engine
// from internal/hdc, the demo Core feature from internal/feature, a real
// or loopback link from internal/link, and the metrics/control HTTP
// servers, bundled the way cmd/gobfd bundles its own servers.
package main

import "github.com/dantte-lp/gohdc/cmd/hdcdevice/commands"

func main() {
	commands.Execute()
}
