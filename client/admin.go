package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"manaclient/being"
	"manaclient/chat"
)

const adminTimeout = 2 * time.Second

// AdminRouter 管理与监控接口
// GET /healthz、GET /metrics、GET /admin/beings、GET|POST /admin/config
func AdminRouter(s *Session, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Route("/admin", func(r chi.Router) {
		r.Get("/beings", s.handleAdminBeings)
		r.Get("/config", s.handleAdminConfig)
		r.Post("/config", s.handleAdminConfig)
	})
	return r
}

// handleAdminBeings 在逻辑线程上取角色快照
func (s *Session) handleAdminBeings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()

	var payload struct {
		Session   string        `json:"session"`
		Dialect   string        `json:"dialect"`
		Connected bool          `json:"connected"`
		Tick      int64         `json:"tick"`
		Beings    []being.Being `json:"beings"`
	}
	err := s.Do(ctx, func() {
		payload.Session = s.ID.String()
		payload.Dialect = s.dialect.Name
		payload.Connected = s.connected
		payload.Tick = s.tickSeq
		payload.Beings = s.beings.Snapshot()
	})
	if err != nil {
		http.Error(w, "session busy", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, payload)
}

// handleAdminConfig 读取与热更新聊天开关
// POST 以 JSON 载荷更新部分字段，如 {"tradeBot":true}
func (s *Session) handleAdminConfig(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), adminTimeout)
	defer cancel()

	type cfg struct {
		TradeBot         *bool `json:"tradeBot,omitempty"`
		ShowShopMessages *bool `json:"showShopMessages,omitempty"`
	}

	var body cfg
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
	}
	var cur chat.Settings
	err := s.Do(ctx, func() {
		cur = s.chat.Settings()
		if body.TradeBot != nil {
			cur.TradeBot = *body.TradeBot
		}
		if body.ShowShopMessages != nil {
			cur.ShowShopMessages = *body.ShowShopMessages
		}
		s.chat.SetSettings(cur)
	})
	if err != nil {
		http.Error(w, "session busy", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		s.log.Infof("config updated: tradeBot=%t showShopMessages=%t", cur.TradeBot, cur.ShowShopMessages)
	}
	writeJSON(w, cur)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
