package signal

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/Lemirq/qhacks-sub000/entity"
)

// phaseOrder 固定相位循环顺序
var phaseOrder = [3]entity.LightState{
	entity.LightStateGreen,
	entity.LightStateYellow,
	entity.LightStateRed,
}

// signalRuntime 信号灯运行时数据结构
type signalRuntime struct {
	phaseIndex int32   // 当前相位在循环中的下标
	remainingT float64 // 当前相位剩余时间（秒）
}

// Signal 固定相位信号灯
// 功能：按绿→黄→红固定程序循环的路口信号灯
// 说明：runtime在Update阶段推进，snapshot在Prepare阶段写入；
// 模拟核心一步之内读到的相位是一致的快照
type Signal struct {
	id       int64
	position orb.Point

	snapshot signalRuntime // 快照，行为控制器读取
	runtime  signalRuntime // 运行时数据
}

// newSignal 创建固定相位信号灯
// 参数：id-信号灯ID，position-位置，durations-各相位时长
// 说明：初始相位按ID对相位数取模错开，相邻路口不会同步变灯
func newSignal(id int64, position orb.Point, durations [3]float64) *Signal {
	phaseIndex := int32(id % int64(len(phaseOrder)))
	if phaseIndex < 0 {
		phaseIndex += int32(len(phaseOrder))
	}
	s := &Signal{
		id:       id,
		position: position,
		runtime: signalRuntime{
			phaseIndex: phaseIndex,
			remainingT: durations[phaseIndex],
		},
	}
	s.snapshot = s.runtime
	return s
}

// prepare 把运行时数据写入快照
func (s *Signal) prepare() {
	s.snapshot = s.runtime
}

// update 推进相位计时
// 参数：dt-时间步长，durations-各相位时长
func (s *Signal) update(dt float64, durations [3]float64) {
	s.runtime.remainingT -= dt
	for s.runtime.remainingT <= 0 {
		s.runtime.phaseIndex = (s.runtime.phaseIndex + 1) % int32(len(phaseOrder))
		s.runtime.remainingT += durations[s.runtime.phaseIndex]
	}
}

// ID 获取信号灯ID
func (s *Signal) ID() int64 {
	return s.id
}

// Position 获取位置
func (s *Signal) Position() orb.Point {
	return s.position
}

// Phase 获取快照相位
func (s *Signal) Phase() entity.LightState {
	return phaseOrder[s.snapshot.phaseIndex]
}

// RemainingTime 获取快照相位剩余时间
func (s *Signal) RemainingTime() float64 {
	return s.snapshot.remainingT
}

func (s *Signal) String() string {
	return fmt.Sprintf("Signal{id=%d, phase=%v, remaining=%.1fs}", s.id, s.Phase(), s.snapshot.remainingT)
}
