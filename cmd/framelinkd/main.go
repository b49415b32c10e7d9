// Command framelinkd runs one link.Instance against either a UART or a
// SocketCAN transport and bridges it to Redis.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/librescoot/mdb-link/pkg/canhw"
	"github.com/librescoot/mdb-link/pkg/link"
	"github.com/librescoot/mdb-link/pkg/redis"
	"github.com/librescoot/mdb-link/pkg/redisbridge"
	"github.com/librescoot/mdb-link/pkg/serialhw"
)

var (
	transportKind = flag.String("transport", "uart", "Transport variant: \"uart\" or \"can\"")
	serialDevice  = flag.String("serial", "/dev/ttymxc1", "Serial device path (uart transport)")
	baudRate      = flag.Int("baud", 115200, "Serial baud rate (uart transport)")
	canIface      = flag.String("can-iface", "can0", "SocketCAN interface name (can transport)")
	canIDTx       = flag.Uint("can-id-tx", 0x100, "Outbound CAN identifier (can transport)")
	canIDRx       = flag.Uint("can-id-rx", 0x101, "Inbound CAN identifier filter (can transport)")
	payloadMax    = flag.Int("payload-max", 256, "Largest application payload in bytes")

	redisAddr = flag.String("redis-addr", "localhost:6379", "Redis server address")
	redisPass = flag.String("redis-pass", "", "Redis password")
	redisDB   = flag.Int("redis-db", 0, "Redis database number")

	submitListKey  = flag.String("submit-key", "framelink:submit", "Redis list polled for outbound payloads")
	deliverChannel = flag.String("deliver-channel", "framelink:deliver", "Redis channel inbound payloads are published to")
)

func buildTransport() (link.Transport, func() error, error) {
	switch *transportKind {
	case "uart":
		hw, err := serialhw.Open(*serialDevice, *baudRate)
		if err != nil {
			return nil, nil, err
		}
		return link.NewUARTTransport(hw), hw.Close, nil
	case "can":
		hw, err := canhw.Open(*canIface)
		if err != nil {
			return nil, nil, err
		}
		return link.NewCANTransport(hw), hw.Close, nil
	default:
		log.Fatalf("unknown -transport %q: expected \"uart\" or \"can\"", *transportKind)
		return nil, nil, nil
	}
}

func main() {
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Printf("Starting framelinkd")
	log.Printf("Transport: %s", *transportKind)

	redisClient, err := redis.New(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Printf("Connected to Redis at %s", *redisAddr)

	transport, closeHW, err := buildTransport()
	if err != nil {
		log.Fatalf("Failed to open transport: %v", err)
	}
	defer closeHW()

	var inst link.Instance
	bridge := redisbridge.New(redisClient, &inst, *submitListKey, *deliverChannel)

	inst.Init(transport, bridge.OnDelivered, link.Config{
		PayloadMax: *payloadMax,
		TxBuf:      make([]byte, *payloadMax+2),
		RxBuf:      make([]byte, *payloadMax+2),
	})

	if *transportKind == "can" {
		inst.SetCANIDRx(uint32(*canIDRx))
		bridge.WithCANIDTx(uint32(*canIDTx))
		log.Printf("CAN identifiers: tx=0x%03x rx=0x%03x", uint32(*canIDTx), uint32(*canIDRx))
	}

	// Instance.Task and every other Instance-touching call (Submit,
	// SubmitCAN, GetState) run from this single goroutine only: §5 requires
	// all calls on a given Instance to be externally serialized, and the core
	// itself holds no internal lock to enforce that. The Redis fetch runs on
	// its own goroutine and only hands decoded payloads across submitCh — it
	// never touches inst directly.
	submitCh := make(chan []byte, 1)
	done := make(chan struct{})

	go func() {
		idle := 0
		for {
			select {
			case <-done:
				return
			case payload := <-submitCh:
				if err := bridge.Submit(payload); err != nil {
					log.Printf("framelinkd: %v", err)
				}
				idle = 0
				continue
			default:
			}
			before := inst.GetState()
			inst.Task()
			after := inst.GetState()
			if before == after {
				idle++
				if idle > 64 {
					time.Sleep(time.Millisecond)
				}
				continue
			}
			idle = 0
		}
	}()

	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			payload, err := bridge.FetchSubmitRequest(1 * time.Second)
			if err != nil {
				log.Printf("framelinkd: submit queue error: %v", err)
				continue
			}
			if payload == nil {
				continue
			}
			select {
			case submitCh <- payload:
			case <-done:
				return
			}
		}
	}()

	log.Printf("framelinkd running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	close(done)
	log.Printf("Shutting down...")
}
