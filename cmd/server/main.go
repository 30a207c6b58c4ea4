package main

import (
	"log"
	"net"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"liyu1981.xyz/iot-gateway-service/pkg/auth"
	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/db"
	"liyu1981.xyz/iot-gateway-service/pkg/gateway"
	gatewayGrpc "liyu1981.xyz/iot-gateway-service/pkg/grpc"
	gatewayHttp "liyu1981.xyz/iot-gateway-service/pkg/http"
	"liyu1981.xyz/iot-gateway-service/pkg/storage"
)

func main() {
	if err := godotenv.Load(); err != nil && !common.IsProduction() {
		log.Fatal("Error loading .env file, copy .env.example to .env first if in development")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := common.GetLogger()

	dbInstance, err := db.Open(cfg)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		log.Fatal(err)
	}

	gw := (&gateway.Gateway{
		Db: *dbInstance,
		Storage: storage.NewWebDAV(storage.Options{
			Timeout:     cfg.UpstreamTimeout,
			MaxFailures: cfg.BreakerFailures,
		}),
		Options: gateway.Options{
			AllowedExtensions: cfg.AllowedExtensions,
			StorageBase:       common.AppendSlash(cfg.WebdavEndpoint),
			StorageNamespace:  cfg.StorageNamespace,
			MinMimetypeClass:  cfg.MinMimetypeClass,
		},
	}).WithDefaultServices()

	verifier := auth.NewNextcloudVerifier(auth.VerifierOptionsFrom(cfg))

	if cfg.GRPCHostPort != "" {
		go func() {
			queryServer := &gatewayGrpc.QueryServer{Gateway: gw, Tokens: tokens}
			s := queryServer.NewServer()

			listener, err := net.Listen("tcp", cfg.GRPCHostPort)
			if err != nil {
				log.Fatalf("failed to listen: %v", err)
			}

			logger.Info("Starting gRPC server on: " + cfg.GRPCHostPort)
			if err := s.Serve(listener); err != nil {
				log.Fatalf("grpc server failed to serve: %v", err)
			}
		}()
	}

	if common.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	rs := &gatewayHttp.RestfulServer{
		Server:           gin.Default(),
		Gateway:          gw,
		Tokens:           tokens,
		Identity:         verifier,
		MaxContentLength: int64(cfg.MaxContentLength),
	}
	rs.Setup()

	logger.Info("http server created with:",
		zap.String("db_type", cfg.DBType),
		zap.Strings("allowed_extensions", cfg.AllowedExtensions),
		zap.Int("max_content_length", cfg.MaxContentLength),
	)

	logger.Info("Starting HTTP server on: " + cfg.HTTPHostPort)
	if err := rs.Server.Run(cfg.HTTPHostPort); err != nil {
		log.Fatalf("http server failed to serve: %v", err)
	}
}
