package application

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-flight-reservation/internal/pkg/logger"
)

const defaultLocatorMaxAttempts = 5

// LocatorGenerator は6桁の予約番号を払い出す
// 発行済みとの重複は搭乗券テーブルで確認するが、最終的な一意性は書き込み時の一意制約で担保する
type LocatorGenerator struct {
	checker     LocatorChecker
	maxAttempts int
	random      func() string
}

func NewLocatorGenerator(checker LocatorChecker, maxAttempts int) *LocatorGenerator {
	if maxAttempts <= 0 {
		maxAttempts = defaultLocatorMaxAttempts
	}
	return &LocatorGenerator{checker: checker, maxAttempts: maxAttempts, random: randomLocator}
}

// Generate は未使用と思われるロケーターを返す
// 重複確認に失敗した場合はその時点の候補を返す
// 上限回数まで重複した場合は最後の候補を返し、書き込み時の一意制約違反に任せる
func (g *LocatorGenerator) Generate(ctx context.Context) string {
	var candidate string
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		candidate = g.random()
		exists, err := g.checker.ExistsByLocator(ctx, candidate)
		if err != nil {
			logger.Warn("予約番号の重複確認に失敗したため候補をそのまま使用します",
				zap.String("locator", candidate),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return candidate
		}
		if !exists {
			return candidate
		}
		logger.Debug("予約番号が重複しました", zap.String("locator", candidate), zap.Int("attempt", attempt))
	}
	logger.Warn("予約番号の再生成が上限に達しました",
		zap.String("locator", candidate),
		zap.Int("max_attempts", g.maxAttempts),
	)
	return candidate
}

func randomLocator() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:reservation.LocatorLength])
}
