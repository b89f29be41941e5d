package task

import (
	"flag"
	"sync"
)

const (
	SelfName = "traffic" // 本程序在模拟任务中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 功能：在每个仿真步骤开始时进行准备工作
// 算法说明：
// 1. 更新时钟：增加内部步数并计算当前时间
// 2. 心跳日志：定期输出系统状态信息
// 3. 提交车辆集合的增量更新（上一步生成与消亡的车辆在此生效）
// 4. 并行准备：并发刷新车辆与信号灯的快照
// 说明：确保所有组件在更新阶段前处于一致状态
func (ctx *Context) prepare() {
	ctx.clock.InternalStep++
	ctx.clock.T = float64(ctx.clock.InternalStep) * ctx.clock.DT

	if ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		stats := ctx.vehicleManager.Stats()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) cars=%d spawned=%d despawned=%d",
			ctx.clock.InternalStep,
			hour, minute, second,
			stats.ActiveCars, stats.TotalSpawned, stats.TotalDespawned,
		)
	}

	// Prepare
	ctx.vehicleManager.PrepareNode()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.vehicleManager.Prepare() // vehicle
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx.signalManager.Prepare() // signal
	}()
	wg.Wait()
}

// update 更新阶段，每步执行一次
// 功能：执行一个仿真步的主要逻辑
// 算法说明：按固定顺序执行五个阶段，阶段之间有严格屏障：
// 1. 生成/消亡：遍历生成点产生新车
// 2. 网格重建：用当前车辆快照整体重建空间网格
// 3. 行为评估：并行评估所有车辆（只读网格与快照）
// 4. 位置推进：按新速度推进所有车辆，处理重路由与消亡
// 5. 信号推进：推进信号灯相位
// 说明：行为评估期间网格不变，所有车辆看到同一份世界状态
func (ctx *Context) update() {
	dt := ctx.clock.DT

	ctx.vehicleManager.UpdateSpawn(dt)
	ctx.collisionManager.UpdateGrid(ctx.vehicleManager.ActiveVehicles())
	ctx.vehicleManager.UpdateBehavior(dt)
	ctx.vehicleManager.UpdatePositions(dt)
	ctx.signalManager.Update(dt)
}

// Step 外部驱动的单步执行
// 说明：嵌入方在两次Step之间调用外部写入面是安全的
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
}

// Run 运行
func (ctx *Context) Run() {
	// 初始化
	ctx.Init()
	for {
		ctx.prepare()
		ctx.update()
		if ctx.clock.InternalStep+1 >= ctx.clock.END_STEP || ctx.closed.Load() {
			break
		}
	}
	log.Infof("engine complete")
}
