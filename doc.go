/*
Package aura locates a face and its features in camera frames using pixel color
heuristics only, and composites synthetic makeup, eyewear and clothing overlays
onto the mirrored video in real time.

The detection pipeline is strictly sequential: the face is searched first and the
eyes, lips, nose, hair and glasses evidence are only searched inside windows
relative to the accepted face box. When a remote landmark service is available,
the Driver can use it instead of the heuristic detector.

The package provides a command line interface with subcommands for still images,
directories and live MJPEG streams. To check the supported commands type:

	$ aura --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/Juan-Cwq/aura"
	)

	func main() {
		p := aura.NewProcessor(aura.Style{Kind: aura.Lipstick, Color: "#B0304A", Intensity: 70})

		if err := p.Process(in, out); err != nil {
			fmt.Printf("Error applying the try-on: %s", err.Error())
		}
	}
*/
package aura
