package signal

import (
	"git.fiblab.net/general/common/v2/parallel"
	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
)

// Manager 交通控制管理器
// 功能：管理所有信号灯与停车标志，推进信号灯相位定时器
// 说明：车辆行为从不修改控制状态，相位推进只发生在Update阶段
type Manager struct {
	ctx entity.ITaskContext

	durations [3]float64 // 各相位时长（与phaseOrder对应）
	signals   []*Signal
	data      map[int64]*Signal
	stopSigns []entity.StopSign
}

// NewManager 创建交通控制管理器实例
// 参数：ctx-任务上下文
// 返回：新创建的交通控制管理器实例
func NewManager(ctx entity.ITaskContext) *Manager {
	c := ctx.RuntimeConfig().C.Signal
	return &Manager{
		ctx:       ctx,
		durations: [3]float64{c.GreenDuration, c.YellowDuration, c.RedDuration},
		data:      make(map[int64]*Signal),
		signals:   make([]*Signal, 0),
		stopSigns: make([]entity.StopSign, 0),
	}
}

// Init 初始化信号灯与停车标志
// 参数：signals-信号灯初始状态列表，stopSigns-停车标志列表
func (m *Manager) Init(signals []entity.SignalState, stopSigns []entity.StopSign) {
	for _, s := range signals {
		sig := newSignal(s.ID, s.Position, m.durations)
		m.signals = append(m.signals, sig)
		m.data[s.ID] = sig
	}
	m.stopSigns = stopSigns
	log.Infof("traffic control: %d signals, %d stop signs", len(m.signals), len(m.stopSigns))
}

// Prepare 准备阶段，把所有信号灯的运行时数据写入快照
func (m *Manager) Prepare() {
	parallel.GoFor(m.signals, func(s *Signal) { s.prepare() })
}

// Update 更新阶段，推进所有信号灯的相位定时器
// 参数：dt-时间步长
func (m *Manager) Update(dt float64) {
	parallel.GoFor(m.signals, func(s *Signal) { s.update(dt, m.durations) })
}

// PhaseAt 查询信号灯当前相位
// 参数：signalID-信号灯ID
// 返回：快照相位与信号灯是否存在
func (m *Manager) PhaseAt(signalID int64) (entity.LightState, bool) {
	if s, ok := m.data[signalID]; ok {
		return s.Phase(), true
	}
	return entity.LightStateRed, false
}

// SignalsNear 查询半径内的信号灯
// 参数：pos-中心位置，radius-半径（米）
// 返回：半径内信号灯的当前状态列表
func (m *Manager) SignalsNear(pos orb.Point, radius float64) []entity.SignalState {
	res := make([]entity.SignalState, 0)
	for _, s := range m.signals {
		if geomath.Distance(pos, s.position) <= radius {
			res = append(res, entity.SignalState{
				ID:       s.id,
				Position: s.position,
				Phase:    s.Phase(),
			})
		}
	}
	return res
}

// StopSignsNear 查询半径内的停车标志
// 参数：pos-中心位置，radius-半径（米）
// 返回：半径内的停车标志列表
func (m *Manager) StopSignsNear(pos orb.Point, radius float64) []entity.StopSign {
	res := make([]entity.StopSign, 0)
	for _, s := range m.stopSigns {
		if geomath.Distance(pos, s.Position) <= radius {
			res = append(res, s)
		}
	}
	return res
}
