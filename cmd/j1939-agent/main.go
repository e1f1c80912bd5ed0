//go:build linux

// Command j1939-agent is a long-running service that reads J1939 traffic
// from a serial adapter or a Linux SocketCAN interface, decodes it
// against a Digital Annex dictionary, publishes the decoded output and
// any out-of-range alerts to MQTT, and deduplicates repeated alerts in a
// local bbolt store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nmfta-repo/pretty-j1939/internal/alertstore"
	"github.com/nmfta-repo/pretty-j1939/internal/config"
	"github.com/nmfta-repo/pretty-j1939/internal/dadb"
	"github.com/nmfta-repo/pretty-j1939/internal/describe"
	"github.com/nmfta-repo/pretty-j1939/internal/ingest"
	"github.com/nmfta-repo/pretty-j1939/internal/publish"
)

const (
	defaultBaud        = 9600
	defaultBroker      = publish.DefaultBroker
	defaultTopic       = publish.DefaultDataTopic
	defaultAlertTopic  = publish.DefaultAlertTopic
	defaultAlertDBPath = "alerts.db"
)

var (
	portName    = flag.String("port", "/dev/ttyUSB0", "Serial port to read candump-format frames from")
	baudRate    = flag.Int("baud", defaultBaud, "Serial baud rate")
	canIface    = flag.String("can-iface", "", "SocketCAN interface name (e.g. can0); overrides -port/-baud when set")
	daJSONPath  = flag.String("da-json", "", "Path to the Digital Annex JSON dictionary")
	broker      = flag.String("broker", defaultBroker, "MQTT broker URL")
	topic       = flag.String("topic", defaultTopic, "MQTT topic for decoded output documents")
	alertTopic  = flag.String("alert-topic", defaultAlertTopic, "MQTT topic for out-of-range alerts")
	alertDBPath = flag.String("alert-db", defaultAlertDBPath, "Path to the bbolt alert dedup store")
	configPath  = flag.String("config", "", "Optional YAML config file; supplies the DA dictionary path, SocketCAN interface, MQTT broker and alert store path where -da-json, -can-iface, -broker or -alert-db is left unset")
	realTime    = flag.Bool("real-time", false, "Emit incremental transport-session views instead of only the final one")
	includeNA   = flag.Bool("include-na", false, "Emit NotAvailable SPN values as \"N/A\" instead of suppressing them")
)

func main() {
	flag.Parse()
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg := loadConfig()

	daData, err := os.ReadFile(*daJSONPath)
	if err != nil {
		log.Fatalf("read DA dictionary %s: %v", *daJSONPath, err)
	}
	db, err := dadb.Load(daData)
	if err != nil {
		log.Fatalf("load DA dictionary: %v", err)
	}

	alertDB, err := alertstore.Open(*alertDBPath)
	if err != nil {
		log.Fatalf("open alert store %s: %v", *alertDBPath, err)
	}
	defer alertDB.Close()

	pub := publish.NewClient(publish.Config{
		Broker:     *broker,
		ClientID:   fmt.Sprintf("j1939-agent-%d", time.Now().UnixNano()),
		DataTopic:  *topic,
		AlertTopic: *alertTopic,
	})
	if err := pub.Connect(); err != nil {
		log.Fatalf("connect to MQTT broker %s: %v", *broker, err)
	}
	defer pub.Disconnect()

	source := selectSource(cfg)
	orchestrator := describe.NewOrchestrator(db, describe.Options{
		DescribePGNs:           true,
		DescribeSPNs:           true,
		DescribeLinkLayer:      true,
		DescribeTransportLayer: true,
		IncludeNA:              *includeNA,
		RealTime:               *realTime,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames, ingestErrs := source.Frames(ctx)

	go func() {
		for err := range ingestErrs {
			if err != nil {
				log.Printf("ingestion error: %v", err)
			}
		}
	}()

	log.Println("j1939-agent running, press Ctrl+C to exit")

	done := make(chan struct{})
	go runPipeline(orchestrator, frames, pub, alertDB, done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("received signal %s, shutting down", sig)

	cancel()
	<-done
	log.Println("j1939-agent stopped")
}

// runPipeline drains frames, decodes each through orchestrator, publishes
// the resulting documents, and raises any out-of-range alert exactly
// once per (SPN, source address) via alertDB. It runs in its own
// goroutine so ingestion (reading the serial port or SocketCAN socket)
// and publishing never block each other, preserving frame arrival order
// into the decode core.
func runPipeline(o *describe.Orchestrator, frames <-chan ingest.Frame, pub *publish.Client, alertDB *bolt.DB, done chan<- struct{}) {
	defer close(done)
	for frame := range frames {
		docs, alerts := o.ProcessFrame(frame.ID, frame.Payload)
		for _, doc := range docs {
			pub.PublishDocument(doc)
		}
		for _, a := range alerts {
			isNew, err := alertstore.IsNew(alertDB, a.SPN, a.SA)
			if err != nil {
				log.Printf("alert store: %v", err)
				continue
			}
			if isNew {
				log.Printf("out-of-range alert: SPN %d (%s) from SA %d: %s", a.SPN, a.Name, a.SA, a.Value)
				pub.PublishAlert(publish.Alert{SPN: a.SPN, Name: a.Name, SA: a.SA, Value: a.Value})
			}
		}
	}
}

// loadConfig reads the optional YAML config file and takes from it the DA
// dictionary path, SocketCAN interface, MQTT broker and alert store path
// where the matching flag is empty or at its default. The file's other
// settings (source kind, port, baud, describe options, MQTT client ID and
// topics) are parsed but not applied.
func loadConfig() *config.Agent {
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config %s: %v", *configPath, err)
	}
	if *daJSONPath == "" {
		*daJSONPath = cfg.DADictionaryPath
	}
	if *canIface == "" {
		*canIface = cfg.Source.Interface
	}
	if *broker == defaultBroker && cfg.MQTT.Broker != "" {
		*broker = cfg.MQTT.Broker
	}
	if *alertDBPath == defaultAlertDBPath && cfg.AlertStorePath != "" {
		*alertDBPath = cfg.AlertStorePath
	}
	return cfg
}

func selectSource(cfg *config.Agent) ingest.Source {
	if *canIface != "" {
		return ingest.NewSocketCANSource(*canIface)
	}
	return ingest.NewSerialSource(*portName, *baudRate)
}
