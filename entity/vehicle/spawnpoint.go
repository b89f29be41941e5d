package vehicle

import "github.com/paulmach/orb"

// spawnPoint 车辆生成点
// 功能：以固定速率在路网入口处产生车辆的计时器
// 说明：速率单位为辆/分钟，计时以仿真毫秒为基准；
// boosted表示该点处于建筑临近提速状态
type spawnPoint struct {
	id        string
	position  orb.Point
	rate      float64 // 生成速率（辆/分钟）
	direction string  // 方向标签（可选，仅透传）
	active    bool
	boosted   bool

	lastSpawnMs float64
}

// due 判断是否到达下一次生成时刻
// 参数：nowMs-当前仿真时间（毫秒），globalRate-全局速率倍数
func (p *spawnPoint) due(nowMs, globalRate float64) bool {
	rate := p.rate * globalRate
	if p.boosted {
		rate *= vicinityRateBoost
	}
	if rate <= 0 {
		return false
	}
	return nowMs-p.lastSpawnMs >= 60000/rate
}
