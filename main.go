package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudflare/cfssl/log"
	"github.com/ssbcFund/client"
	"github.com/ssbcFund/common"
	"github.com/ssbcFund/config"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/contract/crowdfunding"
	"github.com/ssbcFund/event"
	"github.com/ssbcFund/levelDB"
	"github.com/ssbcFund/redis"
	"github.com/ssbcFund/scheduler"
	"github.com/ssbcFund/util"
)

func main() {
	configDir := flag.String("config", "", "config directory")
	dbPath := flag.String("db", "", "levelDB path, overrides db.path")
	flag.Parse()

	if err := Start(*configDir, *dbPath); err != nil {
		log.Fatal(err)
	}
}

func Start(configDir, dbPath string) error {
	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}
	cfg.Apply()
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}

	if !util.FileExists(cfg.DB.Path) {
		log.Infof("no ledger at %s, creating a new one", cfg.DB.Path)
	}
	db, err := levelDB.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// 事件：进程内广播给 websocket，同时保存一份历史
	bus := event.NewBus(64)
	var history event.History
	var publisher event.Publisher
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := rdb.Ping(ctx)
		cancel()
		if err != nil {
			return err
		}
		rp := event.NewRedisPublisher(rdb, cfg.Redis.EventKey, cfg.Redis.MaxEvents)
		history, publisher = rp, event.Multi(rp, bus)
		log.Infof("redis connected: %s", cfg.Redis.Addr)
	} else {
		rec := event.NewRecorder(int(cfg.Redis.MaxEvents))
		history, publisher = rec, event.Multi(rec, bus)
	}

	ledger := contract.NewLedger(db, contract.SystemClock{}, publisher)
	if err := ledger.Genesis(common.FaucetAccountAddress, cfg.Faucet.Supply); err != nil {
		return err
	}
	program := crowdfunding.New(ledger)

	tasks, err := scheduler.NewManager()
	if err != nil {
		return err
	}
	if err := tasks.RegisterExpiryJob(scheduler.NewExpiryJob(program, publisher, cfg.Scheduler.Interval)); err != nil {
		return err
	}
	tasks.Start()

	server := client.NewServer(ledger, program, bus, history, client.Options{
		InitBalance: cfg.Faucet.InitBalance,
		TLS:         cfg.Client.TLS,
		SSLHost:     cfg.Client.SSLHost,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.Client.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.Errorf("client stopped: %s", err)
		}
	}

	// 关闭顺序：调度器、http、redis、db（后两者由 defer 完成）
	tasks.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("client shutdown error: %s", err)
	}
	return nil
}
