package monitor

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/msalopek/exchange_monitor/exchange"
)

type Server struct {
	monitor *Monitor
	hub     *ActivityHub
}

func NewServer(monitor *Monitor) *Server {
	hub := NewActivityHub(monitor.logger)
	monitor.store.OnChange(hub.Broadcast)
	return &Server{
		monitor: monitor,
		hub:     hub,
	}
}

func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/markets", s.getMarkets)
	router.POST("/markets/select", s.selectMarket)
	router.GET("/orders/open", s.getOpenOrders)
	router.GET("/orderbook", s.getOrderBook)
	router.GET("/chart", s.getPriceChart)
	router.GET("/trades", s.getTradeHistory)
	router.GET("/me/orders/open", s.getMyOpenOrders)
	router.GET("/me/orders/filled", s.getMyFilledOrders)
	router.GET("/balances", s.getBalances)
	router.GET("/activity", s.getActivity)
	router.GET("/stats/events", s.getEventStats)
	router.GET("/ws/activity", gin.WrapH(s.hub))
	return router
}

func (s *Server) RunWithContext(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	// Graceful server shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.monitor.logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func parseAddress(c *gin.Context, key string) (common.Address, bool) {
	value := c.Query(key)
	if value == "" {
		return common.Address{}, true
	}
	if !common.IsHexAddress(value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " is not a valid address"})
		return common.Address{}, false
	}
	return common.HexToAddress(value), true
}

// parsePair reads base and quote. Both empty selects the current market.
func parsePair(c *gin.Context) (exchange.Pair, bool) {
	base, ok := parseAddress(c, "base")
	if !ok {
		return exchange.Pair{}, false
	}
	quote, ok := parseAddress(c, "quote")
	if !ok {
		return exchange.Pair{}, false
	}
	return exchange.Pair{Base: base, Quote: quote}, true
}

func requireAccount(c *gin.Context) (common.Address, bool) {
	if c.Query("account") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account is required"})
		return common.Address{}, false
	}
	return parseAddress(c, "account")
}

type MarketResponse struct {
	Name string        `json:"name"`
	Pair exchange.Pair `json:"pair"`
}

func (s *Server) getMarkets(c *gin.Context) {
	markets := []MarketResponse{}
	for _, m := range s.monitor.cfg.Markets {
		markets = append(markets, MarketResponse{Name: m.Name, Pair: m.Pair()})
	}
	c.JSON(http.StatusOK, gin.H{"markets": markets, "selected": s.monitor.store.Pair()})
}

func (s *Server) selectMarket(c *gin.Context) {
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	if name := c.Query("name"); name != "" {
		found := false
		for _, m := range s.monitor.cfg.Markets {
			if m.Name == name {
				pair, found = m.Pair(), true
				break
			}
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown market"})
			return
		}
	}
	if !pair.Ready() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base and quote are required"})
		return
	}

	s.monitor.SelectMarket(pair)
	c.JSON(http.StatusOK, gin.H{"selected": pair})
}

func (s *Server) getOpenOrders(c *gin.Context) {
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": s.monitor.OpenOrders(pair.Base)})
}

// a null orderbook means no market is selected yet
func (s *Server) getOrderBook(c *gin.Context) {
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderbook": s.monitor.OrderBook(pair)})
}

func (s *Server) getPriceChart(c *gin.Context) {
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"chart": s.monitor.PriceChart(pair)})
}

func (s *Server) getTradeHistory(c *gin.Context) {
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": s.monitor.TradeHistory(pair)})
}

func (s *Server) getMyOpenOrders(c *gin.Context) {
	account, ok := requireAccount(c)
	if !ok {
		return
	}
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": s.monitor.MyOpenOrders(account, pair)})
}

func (s *Server) getMyFilledOrders(c *gin.Context) {
	account, ok := requireAccount(c)
	if !ok {
		return
	}
	pair, ok := parsePair(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": s.monitor.MyFilledOrders(account, pair)})
}

func (s *Server) getBalances(c *gin.Context) {
	account, ok := requireAccount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": s.monitor.Balances(account)})
}

func (s *Server) getActivity(c *gin.Context) {
	limit := 0
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, gin.H{"activity": s.monitor.Activity(limit)})
}

func (s *Server) getEventStats(c *gin.Context) {
	if s.monitor.db == nil {
		c.JSON(http.StatusOK, gin.H{"store": s.monitor.store.Counts()})
		return
	}

	stats, err := s.monitor.GetDbEventStats()
	if err != nil {
		s.monitor.logger.Error().Err(err).Msg("failed to get event stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": s.monitor.store.Counts(), "archive": stats})
}
