package vehicle

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/config"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

const (
	controlBearingCone = 90. // 交通控制的有效朝向偏差（度）
	followBearingCone  = 45. // 跟车判定的有效朝向偏差（度）

	stopLineOffset         = 2.   // 停止线到控制点的距离（米）
	minActionDistance      = 0.1  // 距离下限，避免除零（米）
	clearedControlDistance = 18.  // 越过控制点多远视为已清除（米）
	yellowPassDistance     = 12.  // 黄灯下仍选择通过的距离（米）
	clearanceScanRadius    = 15.  // 停车标志放行前的交叉口扫描半径（米）
	comfortBraking         = 2.5  // 常规制动减速度（米/秒²）
	brakeStartMargin       = 8.   // 制动起始距离的固定余量（米）
	followMatchBand        = 1.5  // 跟车速度匹配区间（安全距离的倍数）
	followCloseFactor      = 0.9  // 过近时目标速度相对前车的比例

	stoppedSpeed = 1. / 3.6 // 视为已停住的速度（米/秒）
	movingSpeed  = 5. / 3.6 // 让行判定中视为在动的速度（米/秒）
)

// controller 车辆行为控制器
// 功能：每步按固定优先级评估车辆周围环境，产生纵向控制决策
// 算法说明：优先级从高到低依次为紧急制动、停车标志、信号灯、
// 跟车、巡航，前一层给出决策则后续层不再评估
// 说明：评估期间只读取本车与邻车的快照，从不修改任何运行时状态
type controller struct {
	self *Car

	// 最近通过的交通控制点，避免刚起步又被同一控制点拦下
	lastControlID  int64
	lastControlPos orb.Point
	hasLastControl bool

	waited float64 // 在停车标志前已等待的时间（秒）
}

func newController(self *Car) *controller {
	return &controller{self: self}
}

// update 评估一步行为
func (l *controller) update(dt float64) action {
	cfg := l.self.ctx.RuntimeConfig().C.Behavior
	if !cfg.DisableCollisionResponse {
		if ac, ok := l.emergency(); ok {
			return ac
		}
	}
	l.maybeClearControl()
	if ac, ok := l.stopSign(dt, cfg); ok {
		return ac
	}
	if ac, ok := l.signal(cfg); ok {
		return ac
	}
	if ac, ok := l.follow(); ok {
		return ac
	}
	return l.cruise()
}

// emergency 紧急制动判定
func (l *controller) emergency() (action, bool) {
	if !l.self.ctx.CollisionManager().RequiresEmergencyBrake(l.self) {
		return action{}, false
	}
	return action{
		A:       l.self.profile.MaxBraking,
		TargetV: 0,
		State:   entity.BehaviorEmergencyBraking,
	}, true
}

// maybeClearControl 清除已驶离的控制点记录
func (l *controller) maybeClearControl() {
	if !l.hasLastControl {
		return
	}
	if geomath.Distance(l.self.snapshot.Position, l.lastControlPos) > clearedControlDistance {
		l.hasLastControl = false
		l.lastControlID = 0
	}
}

// ahead 判断目标点是否在本车前方锥形区域内
// 返回：到目标点的距离与是否在前方
func (l *controller) ahead(p orb.Point, cone float64) (float64, bool) {
	pos := l.self.snapshot.Position
	delta := geomath.NormalizeDelta(geomath.Bearing(pos, p) - l.self.snapshot.Bearing)
	if math.Abs(delta) > cone {
		return 0, false
	}
	return geomath.Distance(pos, p), true
}

// brakeStart 制动起始距离
// 说明：按常规制动减速度的刹车距离加固定余量
func brakeStart(v float64) float64 {
	return v*v/(2*comfortBraking) + brakeStartMargin
}

// approachTarget 接近控制点时的目标速度
// 说明：随剩余距离线性衰减到零
func (l *controller) approachTarget(d, bs float64) float64 {
	return l.cruiseLimit() * d / bs
}

// cruiseLimit 当前位置的巡航速度上限（米/秒）
func (l *controller) cruiseLimit() float64 {
	limit := l.self.maxV
	if edge, err := l.self.ctx.RoadNetManager().GetEdgeOrError(l.self.snapshot.EdgeID); err == nil {
		limit = math.Min(limit, edge.MaxSpeed()/3.6)
	}
	return limit
}

// stopSign 停车标志处理
// 算法说明：
//  1. 在检测半径内找前方最近且未被清除的停车标志，没有则交给下层
//  2. 已停住：累计等待时间，等待期满且交叉口无活动车辆后放行，
//     记录该标志为已清除；交叉口仍有车时转入让行状态
//  3. 未停住：距离进入制动区后目标速度随距离衰减，降到接近零速时
//     转入停住状态并重置等待计时
func (l *controller) stopSign(dt float64, cfg config.Behavior) (action, bool) {
	sign, dist, ok := l.nearestSign(cfg.DetectionRadius)
	if !ok {
		return action{}, false
	}
	d := math.Max(dist-stopLineOffset, minActionDistance)

	switch l.self.snapshot.State {
	case entity.BehaviorStoppedAtSign, entity.BehaviorYielding:
		l.waited += dt
		if l.waited < cfg.StopSignMinWait {
			return action{TargetV: 0, State: entity.BehaviorStoppedAtSign, StoppedAtControl: true}, true
		}
		if l.intersectionBusy() {
			return action{TargetV: 0, State: entity.BehaviorYielding, StoppedAtControl: true}, true
		}
		// 放行，交给下层恢复巡航
		l.lastControlID = sign.ID
		l.lastControlPos = sign.Position
		l.hasLastControl = true
		l.waited = 0
		return action{}, false
	default:
		bs := brakeStart(l.self.snapshot.V)
		if d > bs {
			return action{}, false
		}
		if l.self.snapshot.V <= stoppedSpeed {
			l.waited = 0
			return action{TargetV: 0, State: entity.BehaviorStoppedAtSign, StoppedAtControl: true}, true
		}
		return action{TargetV: l.approachTarget(d, bs), State: entity.BehaviorApproachingStop}, true
	}
}

// nearestSign 检测半径内前方最近的停车标志
func (l *controller) nearestSign(radius float64) (entity.StopSign, float64, bool) {
	var (
		best     entity.StopSign
		bestDist = math.Inf(1)
		found    bool
	)
	for _, s := range l.self.ctx.SignalManager().StopSignsNear(l.self.snapshot.Position, radius) {
		if l.hasLastControl && s.ID == l.lastControlID {
			continue
		}
		if d, ok := l.ahead(s.Position, controlBearingCone); ok && d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, bestDist, found
}

// intersectionBusy 交叉口是否仍有活动车辆
func (l *controller) intersectionBusy() bool {
	for _, o := range l.self.ctx.CollisionManager().GetNearbyVehicles(l.self, clearanceScanRadius) {
		if o.V() > movingSpeed {
			return true
		}
	}
	return false
}

// signal 信号灯处理
// 算法说明：
// 1. 在检测半径内找前方最近且未被清除的信号灯，没有则交给下层
// 2. 绿灯直接放行；黄灯且距停止线很近时选择通过，否则与红灯同样制动
// 3. 停住后保持到绿灯放行，并记录该信号灯为已清除
func (l *controller) signal(cfg config.Behavior) (action, bool) {
	sig, dist, ok := l.nearestSignal(cfg.DetectionRadius)
	if !ok {
		return action{}, false
	}
	d := math.Max(dist-stopLineOffset, minActionDistance)

	if l.self.snapshot.State == entity.BehaviorStoppedAtSignal {
		if sig.Phase == entity.LightStateGreen {
			l.lastControlID = sig.ID
			l.lastControlPos = sig.Position
			l.hasLastControl = true
			return action{}, false
		}
		return action{TargetV: 0, State: entity.BehaviorStoppedAtSignal, StoppedAtControl: true}, true
	}

	switch sig.Phase {
	case entity.LightStateGreen:
		return action{}, false
	case entity.LightStateYellow:
		if d <= yellowPassDistance {
			return action{}, false
		}
	}

	bs := brakeStart(l.self.snapshot.V)
	if d > bs {
		return action{}, false
	}
	if l.self.snapshot.V <= stoppedSpeed {
		return action{TargetV: 0, State: entity.BehaviorStoppedAtSignal, StoppedAtControl: true}, true
	}
	return action{TargetV: l.approachTarget(d, bs), State: entity.BehaviorApproachingSignal}, true
}

// nearestSignal 检测半径内前方最近的信号灯
func (l *controller) nearestSignal(radius float64) (entity.SignalState, float64, bool) {
	var (
		best     entity.SignalState
		bestDist = math.Inf(1)
		found    bool
	)
	for _, s := range l.self.ctx.SignalManager().SignalsNear(l.self.snapshot.Position, radius) {
		if l.hasLastControl && s.ID == l.lastControlID {
			continue
		}
		if d, ok := l.ahead(s.Position, controlBearingCone); ok && d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, bestDist, found
}

// follow 跟车处理
// 算法说明：
//  1. 只考虑与本车处于同一当前边或下一条边、且在前方±45度锥内的车辆，
//     停在交通控制前的车辆由信号灯/停车标志逻辑负责，不作为跟车对象
//  2. 距离小于安全跟车距离时减速到略低于前车车速
//  3. 距离在安全距离的1.5倍以内时匹配前车车速
//  4. 更远则交给下层巡航
func (l *controller) follow() (action, bool) {
	cm := l.self.ctx.CollisionManager()
	v := l.self.snapshot.V
	safe := cm.SafeFollowingDistance(v)
	scan := math.Max(safe*followMatchBand+10, 20)

	var (
		lead     entity.IVehicle
		leadDist = math.Inf(1)
	)
	curEdge := l.self.snapshot.EdgeID
	nextEdge := l.self.NextEdgeID()
	for _, o := range cm.GetNearbyVehicles(l.self, scan) {
		if o.StoppedAtControl() {
			continue
		}
		if oe := o.CurrentEdgeID(); oe != curEdge && (nextEdge == 0 || oe != nextEdge) {
			continue
		}
		if d, ok := l.ahead(o.Position(), followBearingCone); ok && d < leadDist {
			lead, leadDist = o, d
		}
	}
	if lead == nil {
		return action{}, false
	}
	if leadDist < safe {
		target := math.Min(lead.V()*followCloseFactor, v)
		return action{TargetV: target, State: entity.BehaviorFollowing}, true
	}
	if leadDist < safe*followMatchBand {
		return action{TargetV: lead.V(), State: entity.BehaviorFollowing}, true
	}
	return action{}, false
}

// cruise 巡航
func (l *controller) cruise() action {
	return action{
		A:       l.self.profile.MaxAcceleration,
		TargetV: l.cruiseLimit(),
		State:   entity.BehaviorCruising,
	}
}
