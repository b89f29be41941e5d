// 随机数引擎，包装了golang.org/x/exp/rand，提供模拟器用到的常用随机数生成方法
package randengine

import (
	"flag"
	"log"
	"sync"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数序列
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成，支持离散分布、抖动等模拟器常用操作
// 说明：基于golang.org/x/exp/rand库，按子系统独立播种以保证可复现
type Engine struct {
	*rand.Rand            // 底层随机数生成器
	mtx        sync.Mutex // 互斥锁，用于线程安全操作
}

// New 创建随机数引擎
// 功能：使用指定种子初始化随机数引擎
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改代码的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// DiscreteDistribution 按给定概率分布生成随机数（非线程安全）
// 功能：根据权重数组生成离散分布的随机索引，用于目的地加权抽样等场景
// 参数：weight-权重数组，每个元素表示对应索引的权重（要求非负）
// 返回：随机生成的索引值（0到len(weight)-1）
// 算法说明：
// 1. 计算总权重并在[0, 总权重)内生成随机数
// 2. 按迭代顺序累积权重，返回第一个累积值超过随机数的索引
// 3. 浮点边界情况下回退到索引0，保证终止
func (e *Engine) DiscreteDistribution(weight []float64) int32 {
	random := .0
	for _, w := range weight {
		random += w
	}
	random *= e.Float64()
	sum := 0.
	for i, w := range weight {
		sum += w
		if sum > random {
			return int32(i)
		}
	}
	if len(weight) > 0 {
		// 浮点累加误差，回退到第一项
		return 0
	}
	log.Panicf("randengine: DiscreteDistribution: empty weight")
	return -1
}

// PTrue 以指定概率返回true（非线程安全）
// 功能：实现伯努利分布，用于模拟概率事件
// 参数：p-返回true的概率（0.0到1.0之间）
// 返回：true或false
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Jitter 在基准值附近按比例抖动（非线程安全）
// 功能：生成base*(1±ratio)范围内的均匀随机值，用于车辆最高速度等个体差异
// 参数：base-基准值，ratio-抖动比例（如0.25表示±25%）
// 返回：抖动后的值
func (e *Engine) Jitter(base, ratio float64) float64 {
	return base * (1 + ratio*(2*e.Float64()-1))
}

// Float64Safe 随机生成浮点数（线程安全）
// 功能：生成[0.0, 1.0)范围内的随机浮点数，支持多线程安全访问
// 返回：[0.0, 1.0)范围内的随机浮点数
func (e *Engine) Float64Safe() float64 {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Float64()
}

// IntnSafe 随机生成整数（线程安全）
// 功能：在[0, n)范围内生成随机整数，支持多线程安全访问
// 参数：n-范围上限（不包含）
// 返回：[0, n)范围内的随机整数
func (e *Engine) IntnSafe(n int) int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.Intn(n)
}
