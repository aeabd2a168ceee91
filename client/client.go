package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/cloudflare/cfssl/log"
	"github.com/gin-gonic/gin"
	"github.com/ssbcFund/contract"
	"github.com/ssbcFund/contract/crowdfunding"
	"github.com/ssbcFund/event"
	"github.com/unrolled/secure"
)

type Options struct {
	InitBalance int64  // 注册账户时从 faucet 转入的余额
	TLS         bool   // 是否重定向为 https
	SSLHost     string // https 重定向的目标 host
}

// Server 用户请求的入口
type Server struct {
	ledger  *contract.Ledger
	program *crowdfunding.Program
	bus     *event.Bus
	history event.History
	opts    Options

	mu  sync.Mutex
	srv *http.Server
}

func NewServer(ledger *contract.Ledger, program *crowdfunding.Program, bus *event.Bus, history event.History, opts Options) *Server {
	return &Server{
		ledger:  ledger,
		program: program,
		bus:     bus,
		history: history,
		opts:    opts,
	}
}

// Router 注册所有路由
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(Cors()) // 使用跨域组件
	if s.opts.TLS {
		r.Use(TlsHandler(s.opts.SSLHost)) // 重定向为https
	}
	r.GET("/registerAccount", s.registerAccount)        // 注册账户
	r.POST("/postCampaign", s.postCampaign)             // 创建众筹活动
	r.POST("/fundCampaign", s.fundCampaign)             // 出资
	r.POST("/withdrawFunds", s.withdrawFunds)           // 发起人提取
	r.POST("/refundContribution", s.refundContribution) // 出资人退款
	r.POST("/query", s.query)                           // 提供账本查询服务
	r.GET("/getLog", s.getLog)                          // 与前端建立websocket
	return r
}

// ListenAndServe 监听用户请求，直到 Shutdown 被调用
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()
	log.Infof("client listening on %s", addr)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func TlsHandler(sslHost string) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect: true,
		SSLHost:     sslHost,
	})
	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// If there was an error, do not continue.
		if err != nil {
			c.Abort()
			return
		}
		// Avoid header rewrite if response is a redirection.
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
