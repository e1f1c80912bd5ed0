// Command j1939-describe reads a candump-format log (a file, or stdin)
// and writes one JSON line to stdout per non-empty decoded output
// document: the frame's own description, plus one per transport session
// view the frame produces. It is the direct analogue of the original
// pretty_j1939 CLI.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
	"github.com/nmfta-repo/pretty-j1939/internal/describe"
	"github.com/nmfta-repo/pretty-j1939/internal/ingest"
)

var (
	daJSONPath = flag.String("da-json", "", "Path to the Digital Annex JSON dictionary (required)")
	inputPath  = flag.String("input", "-", "Path to a candump log file, or \"-\" for stdin")

	describePGNs            = flag.Bool("describe-pgns", true, "Include PGN/DA/SA identification fields")
	describeSPNs            = flag.Bool("describe-spns", true, "Decode and include SPN value fields")
	describeLinkLayer       = flag.Bool("describe-link-layer", true, "Describe each frame at the link layer")
	describeTransportLayer  = flag.Bool("describe-transport-layer", true, "Reassemble and describe BAM/RTS-CTS transport sessions")
	includeTransportRawdata = flag.Bool("include-transport-rawdata", false, "Append the full reassembled payload under \"Transport Data\"")
	includeNA               = flag.Bool("include-na", false, "Emit NotAvailable SPN values as \"N/A\" instead of suppressing them")
	realTime                = flag.Bool("real-time", false, "Emit incremental transport-session views instead of only the final one")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	if *daJSONPath == "" {
		log.Fatal("j1939-describe: -da-json is required")
	}

	daData, err := os.ReadFile(*daJSONPath)
	if err != nil {
		log.Fatalf("j1939-describe: read DA dictionary %s: %v", *daJSONPath, err)
	}
	db, err := dadb.Load(daData)
	if err != nil {
		log.Fatalf("j1939-describe: load DA dictionary: %v", err)
	}

	in := os.Stdin
	if *inputPath != "-" {
		f, err := os.Open(*inputPath)
		if err != nil {
			log.Fatalf("j1939-describe: open %s: %v", *inputPath, err)
		}
		defer f.Close()
		in = f
	}

	orchestrator := describe.NewOrchestrator(db, describe.Options{
		DescribePGNs:            *describePGNs,
		DescribeSPNs:            *describeSPNs,
		DescribeLinkLayer:       *describeLinkLayer,
		DescribeTransportLayer:  *describeTransportLayer,
		IncludeTransportRawdata: *includeTransportRawdata,
		IncludeNA:              *includeNA,
		RealTime:               *realTime,
	})

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	enc := json.NewEncoder(out)

	err = ingest.ScanCandump(in, func(frame ingest.Frame) {
		docs, _ := orchestrator.ProcessFrame(frame.ID, frame.Payload)
		for _, doc := range docs {
			if doc.Len() == 0 {
				continue
			}
			if err := enc.Encode(doc); err != nil {
				log.Printf("j1939-describe: encode output: %v", err)
			}
		}
	})
	if err != nil {
		log.Fatalf("j1939-describe: read input: %v", err)
	}
}
