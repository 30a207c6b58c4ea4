package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	gatewayGrpc "liyu1981.xyz/iot-gateway-service/pkg/grpc"
)

var maxDevices int = 1000
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

// the account must exist in oc_users of the target database
var benchUID string = "admin"

var accessToken string
var grpcClient *gatewayGrpc.QueryClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

func main() {
	_ = godotenv.Load()
	if uid := os.Getenv("BENCH_UID"); uid != "" {
		benchUID = uid
	}

	tokens, err := auth.NewTokenManager(os.Getenv(common.EnvKeyIOTJwtSecret), time.Hour, time.Hour)
	if err != nil {
		log.Fatal("Failed to build token manager, is IOT_JWT_SECRET set? ", err)
	}
	if accessToken, err = tokens.IssueAccess(benchUID); err != nil {
		log.Fatal(err)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}
	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = gatewayGrpc.NewQueryClient(conn, accessToken)
	if _, err := grpcClient.WhoAmI(context.Background()); err != nil {
		log.Fatal("gRPC server not available: ", err)
	}
	fmt.Printf("gRPC server verified and connected\n")

	runID := uuid.NewString()[:8]
	datatypeID := mustCreate("datatype", "Datatype", map[string]any{
		"datatype_name": "bench-" + runID,
		"is_large":      false,
	})

	var startTime time.Time
	var usedTime time.Duration

	deviceIDs := make([]int, maxDevices)
	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deviceIDs[i] = mustCreate("device", "Device", map[string]any{
				"device_name": fmt.Sprintf("bench-%s-%d", runID, i),
				"location":    "bench",
			})
			mustCreate("sensor", "Sensor", map[string]any{
				"sensor_name": fmt.Sprintf("bench-%s-%d", runID, i),
				"topic":       fmt.Sprintf("bench/%s/%d", runID, i),
				"datatype_id": datatypeID,
				"device_id":   deviceIDs[i],
			})
			fmt.Printf("\rcreated device and sensor %v", i)
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rcreated %v devices with one sensor each: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices*2)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			querySensors(deviceIDs[i])
			fmt.Printf("\rqueried sensors of device %v", deviceIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\rqueried sensors of %v devices: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			call(http.MethodDelete, "device", map[string]any{"device_id": deviceIDs[i]})
		}()
	}
	wg.Wait()
	call(http.MethodDelete, "datatype", map[string]any{"datatype_id": datatypeID})
	usedTime = time.Since(startTime)

	fmt.Printf("cleaned up in %v seconds\n", usedTime.Seconds())
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func call(method, resource string, payload map[string]any) (int, string) {
	jsonData, _ := json.Marshal(payload)
	req, err := http.NewRequest(method, fmt.Sprintf("http://%s/api/%s", httpHostPort, resource), bytes.NewBuffer(jsonData))
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var body struct {
		Msg string `json:"msg"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body.Msg
}

// mustCreate posts one entity and returns the id from the "<Kind> <id> (...)"
// confirmation message.
func mustCreate(resource, kind string, payload map[string]any) int {
	code, msg := call(http.MethodPost, resource, payload)
	if code != http.StatusCreated {
		panic(fmt.Sprintf("create %s answered %d: %s", resource, code, msg))
	}
	var id int
	if _, err := fmt.Sscanf(msg, kind+" %d", &id); err != nil {
		panic(fmt.Sprintf("unexpected answer %q: %v", msg, err))
	}
	return id
}

func querySensors(deviceID int) {
	if flipCoin() {
		req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s/api/sensor?device_id=%d", httpHostPort, deviceID), nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("\nresponse status code != 200: %v\n", resp)
		}
	} else {
		items, err := grpcClient.Search(context.Background(), "sensor", map[string]any{"device_id": deviceID})
		if err != nil {
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		if len(items) != 1 {
			fmt.Printf("\nexpected one sensor for device %v, got %v\n", deviceID, len(items))
		}
	}
}
