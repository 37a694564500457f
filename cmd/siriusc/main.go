// Command siriusc converts between the textrep text syntax and sirius bytes.
//
//	siriusc encode -i value.srt -o value.bin
//	siriusc decode --schema 'record { a: u32, b: string }' --hex-input < value.hex
//	siriusc validate --schema-file shape.srs -i value.bin
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "siriusc:", err)
		os.Exit(1)
	}
}
