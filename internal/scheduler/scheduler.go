// Package scheduler 以固定間隔執行拍賣掃描。多實例部署時透過 Redis
// 租約鎖確保同一輪掃描只有一個實例執行。
package scheduler

import (
	"context"
	"sync"
	"time"

	"soulart_auction/internal/services"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepLockKey = "soulart:auction:sweep-lock"

type Scheduler struct {
	auctions      *services.AuctionService
	notifications *services.NotificationService
	redis         *redis.Client
	logger        *zap.Logger
	interval      time.Duration
	instanceID    string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(auctions *services.AuctionService, notifications *services.NotificationService, rdb *redis.Client, logger *zap.Logger, interval time.Duration) *Scheduler {
	return &Scheduler{
		auctions:      auctions,
		notifications: notifications,
		redis:         rdb,
		logger:        logger,
		interval:      interval,
		instanceID:    uuid.NewString(),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
	s.logger.Info("Auction scheduler started",
		zap.Duration("interval", s.interval),
		zap.String("instance_id", s.instanceID),
	)
}

func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Auction scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// 啟動時先跑一輪，避免等待首個 tick
	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep 執行一輪完整掃描：啟動到期的排程拍賣、結束到期的活躍拍賣、
// 送出排隊中的通知
func (s *Scheduler) sweep(ctx context.Context) {
	if !s.acquireLease(ctx) {
		return
	}
	defer s.releaseLease(ctx)

	started := time.Now()

	activated, err := s.auctions.ActivationSweep(ctx)
	if err != nil {
		s.logger.Error("Activation sweep failed", zap.Error(err))
	}

	ended, err := s.auctions.SettlementSweep(ctx)
	if err != nil {
		s.logger.Error("Settlement sweep failed", zap.Error(err))
	}

	notified, err := s.notifications.ProcessQueue(ctx)
	if err != nil {
		s.logger.Error("Notification queue processing failed", zap.Error(err))
	}

	if activated > 0 || ended > 0 || notified > 0 {
		s.logger.Info("Sweep completed",
			zap.Int("activated", activated),
			zap.Int("ended", ended),
			zap.Int("notifications_sent", notified),
			zap.Duration("took", time.Since(started)),
		)
	}
}

// acquireLease 以 SET NX 取得掃描鎖，租期為兩倍掃描間隔。
// Redis 不可用時退回單實例模式照常掃描。
func (s *Scheduler) acquireLease(ctx context.Context) bool {
	ok, err := s.redis.SetNX(ctx, sweepLockKey, s.instanceID, 2*s.interval).Result()
	if err != nil {
		s.logger.Warn("Sweep lock unavailable, proceeding without lease", zap.Error(err))
		return true
	}
	return ok
}

func (s *Scheduler) releaseLease(ctx context.Context) {
	owner, err := s.redis.Get(ctx, sweepLockKey).Result()
	if err != nil || owner != s.instanceID {
		return
	}
	if err := s.redis.Del(ctx, sweepLockKey).Err(); err != nil {
		s.logger.Warn("Failed to release sweep lock", zap.Error(err))
	}
}
