package collision

import (
	"math"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

const (
	predictionHorizon  = 2.5 // 碰撞预测时域（秒）
	predictionStep     = 0.5 // 预测采样间隔（秒）
	emergencyTTC       = 2.0 // 触发紧急制动的碰撞时间阈值（秒）
	followingHeadway   = 2.0 // 两秒跟车法则的车头时距（秒）
	predictiveScanBase = 50  // 预测查询的基础扫描半径（米）
)

// Manager 碰撞系统管理器
// 功能：维护每步整体重建的均匀空间网格，提供即时/预测碰撞查询
// 说明：本模块从不修改车辆，全部查询基于UpdateGrid时刻的快照
type Manager struct {
	ctx entity.ITaskContext

	safetyBubble float64 // 安全气泡半径（米）
	grid         *grid
	tracked      int
}

// NewManager 创建碰撞系统管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的碰撞系统管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	c := ctx.RuntimeConfig().C.Collision
	log.Infof("collision grid: cell size %.0fm, safety bubble %.1fm", c.CellSize, c.SafetyBubble)
	return &Manager{
		ctx:          ctx,
		safetyBubble: c.SafetyBubble,
		grid:         newGrid(c.CellSize),
	}
}

// UpdateGrid 重建空间网格
// 功能：用本步的车辆位置快照整体重建网格，O(n)
// 参数：vehicles-本步活跃车辆列表
// 说明：重建后网格在整个行为评估阶段保持不变
func (m *Manager) UpdateGrid(vehicles []entity.IVehicle) {
	m.grid.rebuild(vehicles)
	m.tracked = len(vehicles)
}

// GetNearbyVehicles 查询半径内的其他车辆
// 功能：扫描目标车辆所在单元及邻域单元，按真实距离过滤
// 参数：v-目标车辆，radius-半径（米）
// 返回：半径内的其他车辆（不含v本身）
func (m *Manager) GetNearbyVehicles(v entity.IVehicle, radius float64) []entity.IVehicle {
	res := make([]entity.IVehicle, 0)
	m.grid.scan(v.Position(), radius, func(other entity.IVehicle) {
		if other.ID() == v.ID() {
			return
		}
		if geomath.Distance(v.Position(), other.Position()) <= radius {
			res = append(res, other)
		}
	})
	return res
}

// CheckImmediateCollision 即时碰撞检查
// 功能：检查是否有车辆进入2倍安全气泡半径内（当步重叠/准重叠）
// 参数：v-目标车辆
// 返回：最近的冲突车辆与是否冲突
func (m *Manager) CheckImmediateCollision(v entity.IVehicle) (entity.IVehicle, bool) {
	return m.nearestWithin(v, 2*m.safetyBubble)
}

// nearestWithin 查询半径内最近的其他车辆
func (m *Manager) nearestWithin(v entity.IVehicle, radius float64) (entity.IVehicle, bool) {
	var nearest entity.IVehicle
	nearestDist := math.Inf(1)
	m.grid.scan(v.Position(), radius, func(other entity.IVehicle) {
		if other.ID() == v.ID() {
			return
		}
		if d := geomath.Distance(v.Position(), other.Position()); d <= radius && d < nearestDist {
			nearestDist = d
			nearest = other
		}
	})
	return nearest, nearest != nil
}

// CheckPredictiveCollision 预测碰撞检查
// 功能：把本车与邻近车辆沿各自朝向按当前速度恒速外推，
// 每0.5秒采样一次，报告首个投影间距跌破2倍安全气泡的采样时刻
// 参数：v-目标车辆
// 返回：预测碰撞时间（秒）与是否预测到碰撞
func (m *Manager) CheckPredictiveCollision(v entity.IVehicle) (float64, bool) {
	scanRadius := predictiveScanBase + v.V()*predictionHorizon
	nearby := m.GetNearbyVehicles(v, scanRadius)
	if len(nearby) == 0 {
		return 0, false
	}
	threshold := 2 * m.safetyBubble
	for t := predictionStep; t <= predictionHorizon; t += predictionStep {
		selfPos := geomath.Offset(v.Position(), v.Bearing(), v.V()*t)
		for _, other := range nearby {
			otherPos := geomath.Offset(other.Position(), other.Bearing(), other.V()*t)
			if geomath.Distance(selfPos, otherPos) < threshold {
				return t, true
			}
		}
	}
	return 0, false
}

// RequiresEmergencyBrake 是否需要紧急制动
// 功能：已进入2.5倍安全气泡半径，或预测碰撞时间不超过2秒时为真
// 参数：v-目标车辆
func (m *Manager) RequiresEmergencyBrake(v entity.IVehicle) bool {
	if _, hit := m.nearestWithin(v, 2.5*m.safetyBubble); hit {
		return true
	}
	if ttc, ok := m.CheckPredictiveCollision(v); ok && ttc <= emergencyTTC {
		return true
	}
	return false
}

// SafeFollowingDistance 安全跟车距离
// 功能：两秒法则的标准跟车距离，行为控制器的跟车判据
// 参数：vMS-速度（米/秒）
// 返回：安全跟车距离（米），下限为2倍安全气泡半径
func (m *Manager) SafeFollowingDistance(vMS float64) float64 {
	return math.Max(2*m.safetyBubble, vMS*followingHeadway)
}

// Stats 获取统计信息
func (m *Manager) Stats() entity.CollisionStats {
	return entity.CollisionStats{
		TrackedVehicles: m.tracked,
		OccupiedCells:   m.grid.occupiedCells(),
	}
}
