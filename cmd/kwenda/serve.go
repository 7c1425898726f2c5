// README: serve wires config, infrastructure, services and the HTTP API, then runs until signalled.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"kwenda/internal/breaker"
	"kwenda/internal/config"
	httptransport "kwenda/internal/http"
	"kwenda/internal/infra"
	"kwenda/internal/logger"
	"kwenda/internal/maps"
	"kwenda/internal/metrics"
	"kwenda/internal/modules/location"
	"kwenda/internal/modules/matching"
	"kwenda/internal/modules/notification"
	"kwenda/internal/modules/waittime"
)

var (
	migrate     bool
	defaultCity string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dispatch API and notification relay",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().BoolVar(&migrate, "migrate", false, "apply the embedded schema before serving")
	serveCmd.Flags().StringVar(&defaultCity, "city", "kinshasa", "city used by wait-time requests that omit one")
	rootCmd.AddCommand(serveCmd)
}

func breakerOptions(c config.BreakerConfig) breaker.Options {
	return breaker.Options{
		Threshold:        c.Threshold,
		Timeout:          c.Timeout(),
		HalfOpenRequests: c.HalfOpenRequests,
	}
}

func newBreakers(cfg config.BreakersConfig, m *metrics.Metrics, log logger.Logger) *breaker.Registry {
	defaults := breakerOptions(cfg.Default)
	defaults.IsExpected = infra.IsExpectedError
	overrides := make(map[string]breaker.Options, len(cfg.Overrides))
	for name, o := range cfg.Overrides {
		overrides[name] = breakerOptions(o)
	}
	reg := breaker.NewRegistry(defaults, overrides, log)
	reg.OnStateChange(m.BreakerStateChanged)
	for _, name := range breaker.Names {
		reg.Get(name)
	}
	return reg
}

func serve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(cfg.Logging.Level)
	log := logger.New("kwenda")
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	breakers := newBreakers(cfg.Breakers, m, logger.New("breaker"))

	if cfg.Firebase.ProjectID == "" {
		return fmt.Errorf("firebase.project_id is required")
	}
	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}
	verifier, err := infra.NewFirebaseVerifier(ctx, app)
	if err != nil {
		return err
	}
	fcm, err := infra.NewMessaging(ctx, app)
	if err != nil {
		return err
	}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if migrate {
		if err := infra.Migrate(ctx, db); err != nil {
			return err
		}
		log.Infof("schema applied")
	}

	rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	notifications := notification.NewStore(db)
	var secondary []notification.Sink
	if cfg.Kafka.Brokers != "" {
		producer, err := infra.NewKafkaProducer(cfg.Kafka.Brokers, "kwenda-dispatch")
		if err != nil {
			return err
		}
		kafka := notification.NewKafkaPublisher(producer, cfg.Kafka.Topic)
		defer kafka.Close()
		secondary = append(secondary, kafka)
	}
	sink := notification.NewMultiSink(logger.New("notification"), notifications, secondary...)

	// In-app offers ride the relay so they respect each wave's not_before.
	var inApp notification.DevicePusher
	if cfg.MQTT.Broker != "" {
		client, err := infra.NewMQTT(cfg.MQTT)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		inApp = notification.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS)
	}

	var routes matching.RouteEstimator
	if cfg.Maps.APIKey != "" {
		rs, err := maps.NewRouteService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		routes = rs
	} else {
		log.Warnf("maps.api_key not set; pickup ETAs use the distance formula")
	}

	matchingStore := matching.NewStore(db, rdb)
	matchingSvc, err := matching.NewService(matching.Deps{
		Candidates: matchingStore,
		Sink:       sink,
		Records:    matchingStore,
		Routes:     routes,
		Breakers:   breakers,
		Metrics:    m,
		Log:        logger.New("matching"),
	}, cfg.Matching, cfg.Dispatch)
	if err != nil {
		return err
	}

	locationSvc := location.NewService(location.NewStore(db, rdb), breakers, logger.New("location"))
	estimator := waittime.NewEstimator(locationSvc, waittime.NewStore(db), cfg.WaitTime, breakers, m, logger.New("waittime"))

	relay := notification.NewRelay(notification.RelayDeps{
		Store:    notifications,
		Pusher:   notification.NewPusher(fcm),
		InApp:    inApp,
		Accepted: matchingStore,
		Breakers: breakers,
		Metrics:  m,
		Log:      logger.New("relay"),
	}, cfg.Relay.Interval(), cfg.Relay.BatchSize)
	go relay.Run(ctx)

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.RouterDeps{
		Matching: matchingSvc,
		Location: locationSvc,
		WaitTime: estimator,
		Breakers: breakers,
		Verifier: verifier,
		City:     defaultCity,
		Log:      logger.New("http"),
	})
	return server.Run(ctx)
}
