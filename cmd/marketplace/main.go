package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	"golang.org/x/sync/errgroup"

	auctionapp "github.com/wyfcoding/localmarket/internal/auction/application"
	auctiondomain "github.com/wyfcoding/localmarket/internal/auction/domain"
	auctionmsg "github.com/wyfcoding/localmarket/internal/auction/infrastructure/messaging"
	auctionmysql "github.com/wyfcoding/localmarket/internal/auction/infrastructure/persistence/mysql"
	gatewayapp "github.com/wyfcoding/localmarket/internal/gateway/application"
	gatewaydomain "github.com/wyfcoding/localmarket/internal/gateway/domain"
	gatewaymysql "github.com/wyfcoding/localmarket/internal/gateway/infrastructure/persistence/mysql"
	gatewayhttp "github.com/wyfcoding/localmarket/internal/gateway/interfaces/http"
	groupbuyapp "github.com/wyfcoding/localmarket/internal/groupbuy/application"
	groupbuydomain "github.com/wyfcoding/localmarket/internal/groupbuy/domain"
	groupbuymsg "github.com/wyfcoding/localmarket/internal/groupbuy/infrastructure/messaging"
	groupbuymysql "github.com/wyfcoding/localmarket/internal/groupbuy/infrastructure/persistence/mysql"
	orderapp "github.com/wyfcoding/localmarket/internal/order/application"
	orderdomain "github.com/wyfcoding/localmarket/internal/order/domain"
	ordermsg "github.com/wyfcoding/localmarket/internal/order/infrastructure/messaging"
	ordermysql "github.com/wyfcoding/localmarket/internal/order/infrastructure/persistence/mysql"
	reputationapp "github.com/wyfcoding/localmarket/internal/reputation/application"
	reputationdomain "github.com/wyfcoding/localmarket/internal/reputation/domain"
	reputationmsg "github.com/wyfcoding/localmarket/internal/reputation/infrastructure/messaging"
	reputationmysql "github.com/wyfcoding/localmarket/internal/reputation/infrastructure/persistence/mysql"
	reputationconsumer "github.com/wyfcoding/localmarket/internal/reputation/interfaces/consumer"
)

var configPath = flag.String("config", "configs/marketplace/config.toml", "config file path")

// auctionOrderCreator 把竞拍成交适配到订单上下文的幂等建单命令。
type auctionOrderCreator struct {
	orders *orderapp.OrderCommandService
}

func (a auctionOrderCreator) CreateSettledOrder(ctx context.Context, spec auctiondomain.SettledOrder) (string, error) {
	return a.orders.CreateSettledOrder(ctx, orderapp.CreateSettledOrderCommand{
		VendorID:   spec.VendorID,
		SupplierID: spec.SupplierID,
		Quantity:   spec.Quantity,
		FinalPrice: spec.FinalPrice,
		SourceRef:  spec.SourceRef,
	})
}

// groupBuyOrderCreator 把团购履约扇出适配到订单上下文的幂等建单命令。
type groupBuyOrderCreator struct {
	orders *orderapp.OrderCommandService
}

func (g groupBuyOrderCreator) CreateSettledOrder(ctx context.Context, spec groupbuydomain.SettledOrder) (string, error) {
	return g.orders.CreateSettledOrder(ctx, orderapp.CreateSettledOrderCommand{
		VendorID:   spec.VendorID,
		SupplierID: spec.SupplierID,
		Quantity:   spec.Quantity,
		FinalPrice: spec.FinalPrice,
		SourceRef:  spec.SourceRef,
	})
}

func main() {
	flag.Parse()

	// 1. 初始化配置
	var cfg config.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	logCfg := &logging.Config{
		Service:    cfg.Server.Name,
		Module:     "marketplace",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}
	logger := logging.NewFromConfig(logCfg)
	slog.SetDefault(logger.Logger)

	// 3. 初始化指标
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		go metricsImpl.ExposeHTTP(cfg.Metrics.Port)
	}

	// 4. 初始化基础设施
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	// Auto Migrate (仅用于开发方便)
	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&orderdomain.Order{}, &orderdomain.OrderBid{}, &orderdomain.OrderGroupBuy{},
			&orderdomain.OrderGroupParticipant{}, &orderdomain.OrderStatusChange{},
			&auctiondomain.Auction{}, &auctiondomain.AuctionBid{},
			&groupbuydomain.GroupBuy{}, &groupbuydomain.GroupBuyParticipant{},
			&reputationdomain.ReputationRecord{}, &reputationdomain.ScoreEntry{},
			&gatewaydomain.RequestRecord{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	// 5. Kafka 与发件箱
	kafkaProducer := kafka.NewProducer(&cfg.MessageQueue.Kafka, logger, metricsImpl)
	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)
	pusher := func(ctx context.Context, topic, key string, payload []byte) error {
		return kafkaProducer.PublishToTopic(ctx, topic, []byte(key), payload)
	}
	outboxProcessor := outbox.NewProcessor(outboxMgr, pusher, 100, 2*time.Second)

	// 6. 仓储与应用服务
	reputationSvc := reputationapp.NewReputationService(
		reputationmysql.NewReputationRepository(db.RawDB()),
		reputationmysql.NewTxManager(db.RawDB()),
		reputationmsg.NewOutboxPublisher(outboxMgr),
	)

	orderSvc := orderapp.NewOrderService(
		ordermysql.NewOrderRepository(db.RawDB()),
		ordermysql.NewTxManager(db.RawDB()),
		ordermsg.NewOutboxPublisher(outboxMgr),
		reputationSvc,
	)

	auctionSvc := auctionapp.NewAuctionService(
		auctionmysql.NewAuctionRepository(db.RawDB()),
		auctionmysql.NewTxManager(db.RawDB()),
		auctionmsg.NewOutboxPublisher(outboxMgr),
		auctionOrderCreator{orders: orderSvc.Command},
	)

	groupBuySvc := groupbuyapp.NewGroupBuyService(
		groupbuymysql.NewGroupBuyRepository(db.RawDB()),
		groupbuymysql.NewTxManager(db.RawDB()),
		groupbuymsg.NewOutboxPublisher(outboxMgr),
		groupBuyOrderCreator{orders: orderSvc.Command},
	)

	gateway := gatewayapp.NewMatchingGateway(
		orderSvc,
		auctionSvc,
		groupBuySvc,
		reputationSvc,
		gatewaymysql.NewRequestRepository(db.RawDB()),
	)

	// 7. 订单终态事件消费，异步刷新买家信任分
	orderEventHandler := reputationconsumer.NewOrderEventHandler(reputationSvc, logger.Logger)
	consumerTopics := []string{reputationconsumer.OrderCompletedTopic, reputationconsumer.OrderCancelledTopic}
	for _, topic := range consumerTopics {
		consumerCfg := cfg.MessageQueue.Kafka
		consumerCfg.Topic = topic
		if consumerCfg.GroupID == "" {
			consumerCfg.GroupID = "marketplace-reputation-group"
		}
		consumer := kafka.NewConsumer(&consumerCfg, logger, metricsImpl)
		consumer.Start(context.Background(), 3, orderEventHandler.Handle)
	}

	// 8. 接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	root := r.Group("")
	gatewayhttp.NewOrderHandler(gateway).RegisterRoutes(root)
	gatewayhttp.NewAuctionHandler(gateway).RegisterRoutes(root)
	gatewayhttp.NewGroupBuyHandler(gateway).RegisterRoutes(root)
	gatewayhttp.NewReputationHandler(gateway).RegisterRoutes(root)

	// 9. 启动服务
	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		outboxProcessor.Start()
		<-ctx.Done()
		outboxProcessor.Stop()
		return nil
	})

	// 后台清扫：到期竞拍截止、到期团购与拼单订单过期
	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n, err := auctionSvc.Command.CloseExpired(ctx, 100); err != nil {
					slog.Error("auction sweep failed", "closed", n, "error", err)
				}
				if n, err := groupBuySvc.Command.ExpireDue(ctx, 100); err != nil {
					slog.Error("group buy sweep failed", "expired", n, "error", err)
				}
				if n, err := orderSvc.Command.ExpireDueGroupOrders(ctx, 100); err != nil {
					slog.Error("order sweep failed", "expired", n, "error", err)
				}
			}
		}
	})

	var server *http.Server
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
		server = &http.Server{Addr: addr, Handler: r}
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// 10. 优雅关闭
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}

		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
