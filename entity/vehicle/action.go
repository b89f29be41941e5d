package vehicle

import "github.com/Lemirq/qhacks-sub000/entity"

// 行为决策结果
// 由行为控制器产生，描述本时刻的纵向控制意图。
// A为加速度(m/s^2)，TargetV为期望车速(m/s)。
type action struct {
	A                float64
	TargetV          float64
	State            entity.BehaviorState
	StoppedAtControl bool
}

// 默认松弛加速度(m/s^2)
// 当行为决策未给出加速度时，以该速率向目标车速收敛。
const defaultEaseRate = 3.0
