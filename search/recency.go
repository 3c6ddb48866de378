package search

import (
	"context"

	"github.com/rushteam/shopkit/core"
)

// 近期交互加分的默认参数：最近一个商品 +1.0，往前每个位次衰减 0.15。
const (
	DefaultRecencyBase  = 1.0
	DefaultRecencyDecay = 0.15
	DefaultRecencyTopK  = 5
)

// recencyBoost 从用户最近的 click/add_to_cart 事件派生商品加分：
// 按时间倒序取前 topK 个不同的商品，第 i 个（0 起）加 base - i*decay。
// 分值不为负。
func recencyBoost(
	ctx context.Context,
	events core.EventStore,
	userID string,
	base, decay float64,
	topK int,
) (map[int64]float64, error) {
	if userID == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultRecencyTopK
	}

	// 多取一些：同一商品的重复交互只按首次出现计位次
	recent, err := events.GetRecentEvents(ctx, userID,
		[]core.EventType{core.EventClick, core.EventAddToCart}, topK*4)
	if err != nil {
		return nil, err
	}

	boost := make(map[int64]float64, topK)
	for _, e := range recent {
		if e.ProductID == 0 {
			continue
		}
		if _, ok := boost[e.ProductID]; ok {
			continue
		}
		score := base - float64(len(boost))*decay
		if score <= 0 {
			break
		}
		boost[e.ProductID] = score
		if len(boost) >= topK {
			break
		}
	}
	return boost, nil
}
