package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dhmanager/channel/internal/character"
	"github.com/dhmanager/channel/internal/config"
	"github.com/dhmanager/channel/internal/core/clock"
	"github.com/dhmanager/channel/internal/data"
	"github.com/dhmanager/channel/internal/entity"
	gonet "github.com/dhmanager/channel/internal/net"
	"github.com/dhmanager/channel/internal/net/packet"
	"github.com/dhmanager/channel/internal/persist"
	"github.com/dhmanager/channel/internal/scripting"
	"github.com/dhmanager/channel/internal/zone"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           L1JGO-Whale  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      天堂 3.80C · Go 頻道伺服器           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("L1JGO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL 連線成功")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("資料庫遷移完成")
	fmt.Println()

	// 4. Create repositories
	accountRepo := persist.NewAccountRepo(db)
	charRepo := persist.NewCharacterRepo(db)
	itemRepo := persist.NewItemRepo(db)
	demonRepo := persist.NewDemonRepo(db)
	walRepo := persist.NewWALRepo(db)
	_ = accountRepo // wired into the login handshake, out of scope for this bootstrap (spec.md §1: lobby auth excluded)

	// 5. Load the Definition Registry
	printSection("資料載入")

	defs, err := data.Load(data.Paths{
		Items:    "data/yaml/items.yaml",
		Skills:   "data/yaml/skills.yaml",
		Demons:   "data/yaml/demons.yaml",
		Zones:    "data/yaml/zones.yaml",
		Statuses: "data/yaml/status_effects.yaml",
		Shops:    "data/yaml/shops.yaml",
		CZones:   "data/yaml/czones.yaml",
		DynMaps:  "data/yaml/dynamic_maps.yaml",
		Partials: "data/yaml/zone_partials.yaml",
	})
	if err != nil {
		return fmt.Errorf("load definition registry: %w", err)
	}
	printStat("物品定義", defs.Items.Count())
	printStat("技能定義", defs.Skills.Count())
	printStat("惡魔定義", defs.Demons.Count())
	printStat("區域定義", defs.Zones.Count())
	printStat("狀態效果定義", defs.Statuses.Count())
	fmt.Println()

	// 5a. Scripting engine for zone spot enter/leave actions (spec §4.4)
	scriptEngine, err := scripting.NewEngine("scripts/zone", log)
	if err != nil {
		log.Warn("腳本引擎載入失敗，以空腳本目錄繼續", zap.Error(err))
	}
	defer scriptEngine.Close()

	// 6. Clock, Zone Manager, Character Manager
	clk := clock.New()
	zoneMgr := zone.NewManager(defs, clk, log)
	zoneMgr.SetScripts(scriptEngine)
	charMgr := character.NewManager(defs, zoneMgr, log)
	charMgr.SetWAL(walAdapter{walRepo})

	liveChars := newCharacterSet()

	// 7. Network server (wire protocol is carried opaque: the core never
	// interprets opcode payloads beyond framing/cipher — spec.md §1 scope).
	pktReg := packet.NewRegistry(log)
	pktReg.Register(packet.SOpcodeKeepAlive, []packet.SessionState{packet.StateInWorld}, func(sess any, r *packet.Reader) {
		// keepalive carries no payload worth interpreting here
	})

	netServer, err := gonet.NewServer(
		fmt.Sprintf("%s:%d", cfg.Channel.ListenAddress, cfg.Channel.Port),
		cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log,
	)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	go netServer.AcceptLoop()
	go dispatchSessions(netServer, pktReg, log)

	// 8. Zone tick worker pool (spec §5: a multi-threaded worker pool
	// drives zone ticks, never a single goroutine loop). Each tick, every
	// known instance ID is pushed onto a job channel; WorkerCount workers
	// drain it concurrently, each touching only the one Instance (and its
	// own mutex) it dequeued.
	pool := newZoneTickPool(zoneMgr, clk, cfg.Zone)
	pool.Start()
	defer pool.Stop()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("區域 tick 間隔 %dus · 工作執行緒 %d", cfg.Zone.TickIntervalMicros, cfg.Zone.WorkerCount))
	fmt.Println()

	idleTicker := time.NewTicker(cfg.Zone.IdleZoneTimeout / 4)
	defer idleTicker.Stop()

	for {
		select {
		case <-idleTicker.C:
			destroyed := zoneMgr.SweepIdle(clock.ServerTime(cfg.Zone.IdleZoneTimeout.Microseconds()))
			if len(destroyed) > 0 {
				log.Debug("閒置區域已銷毀", zap.Int32s("instance_ids", destroyed))
			}
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			saveAllCharacters(shutdownCtx, liveChars, charRepo, itemRepo, demonRepo, log)
			shutdownCancel()
			netServer.Shutdown()
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// dispatchSessions routes each newly accepted session's inbound packets
// through the opcode registry. The core treats every payload as opaque
// framed bytes past dispatch (spec.md §1 scope) — no opcode's business
// logic lives in this bootstrap.
func dispatchSessions(srv *gonet.Server, reg *packet.Registry, log *zap.Logger) {
	for sess := range srv.NewSessions() {
		go func(s *gonet.Session) {
			for payload := range s.InQueue {
				if err := reg.Dispatch(s, s.State(), payload); err != nil {
					log.Debug("封包處理失敗", zap.Error(err))
				}
			}
		}(sess)
	}
}

// walAdapter satisfies character.WAL by converting character.WALEntry to
// persist.WALEntry, keeping internal/character free of an internal/persist
// import.
type walAdapter struct {
	repo *persist.WALRepo
}

func (a walAdapter) WriteWAL(ctx context.Context, entries []character.WALEntry) error {
	converted := make([]persist.WALEntry, len(entries))
	for i, e := range entries {
		converted[i] = persist.WALEntry{
			TxType: e.TxType, FromChar: e.FromChar, ToChar: e.ToChar,
			ItemID: e.ItemID, Count: e.Count, EnchantLvl: e.EnchantLvl, GoldAmount: e.GoldAmount,
		}
	}
	return a.repo.WriteWAL(ctx, converted)
}

// characterSet tracks the characters currently resident in the process, for
// the shutdown auto-save pass. Packet handlers (out of this bootstrap's
// scope) would Add on zone entry and Remove on disconnect/logout.
type characterSet struct {
	mu   sync.Mutex
	byID map[string]*character.Character
}

func newCharacterSet() *characterSet {
	return &characterSet{byID: make(map[string]*character.Character)}
}

func (s *characterSet) Add(c *character.Character) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[c.UUID] = c
}

func (s *characterSet) Remove(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, uuid)
}

func (s *characterSet) All() []*character.Character {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*character.Character, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out
}

func saveAllCharacters(ctx context.Context, live *characterSet, charRepo *persist.CharacterRepo, itemRepo *persist.ItemRepo, demonRepo *persist.DemonRepo, log *zap.Logger) {
	for _, c := range live.All() {
		x, y, rot := c.Entity.Position()
		hp, mp := c.Entity.HPMP()
		stats := c.Entity.Stats()
		row := persist.CharacterRow{
			UUID: c.UUID, HP: hp, MP: mp,
			MaxHP: stats[entity.StatHPMax], MaxMP: stats[entity.StatMPMax],
			X: x, Y: y, Rot: rot, SummonedSlot: c.SummonedSlot,
		}
		if err := charRepo.SaveSnapshot(ctx, row); err != nil {
			log.Error("儲存角色快照失敗", zap.String("uuid", c.UUID), zap.Error(err))
		}

		stacks := make([]persist.ItemStackRow, len(c.Items))
		for i, s := range c.Items {
			slot := -1
			for eq, objID := range c.Equipped {
				if objID == s.ObjectID {
					slot = eq
				}
			}
			stacks[i] = persist.ItemStackRow{ObjectID: s.ObjectID, ItemID: s.ItemID, Count: s.Count, Slot: slot}
		}
		if err := itemRepo.SaveInventory(ctx, c.UUID, stacks); err != nil {
			log.Error("儲存物品欄失敗", zap.String("uuid", c.UUID), zap.Error(err))
		}

		if len(c.Demons) > 0 {
			var summoned string
			if c.SummonedSlot >= 0 && c.SummonedSlot < len(c.Demons) {
				summoned = c.Demons[c.SummonedSlot].UUID
			}
			if err := demonRepo.SetSummoned(ctx, c.UUID, summoned); err != nil {
				log.Error("儲存惡魔召喚狀態失敗", zap.String("uuid", c.UUID), zap.Error(err))
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
