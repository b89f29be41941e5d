package vehicle

import (
	"fmt"
	"strings"
	"sync"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/paulmach/orb"
	"github.com/samber/lo"

	"github.com/Lemirq/qhacks-sub000/entity"
	"github.com/Lemirq/qhacks-sub000/utils/container"
	"github.com/Lemirq/qhacks-sub000/utils/geomath"
	"github.com/Lemirq/qhacks-sub000/utils/input"
	"github.com/Lemirq/qhacks-sub000/utils/randengine"
)

const (
	maxSpeedJitter    = 0.25 // 生成时最高速度抖动比例
	vicinityRateBoost = 3.   // 建筑临近生成点的速率倍数
	vicinityRadius    = 150. // 建筑临近判定半径（米）
	burstEdgeRadius   = 100. // 批量生成的边搜索半径（米）
	burstSpacing      = 6.   // 批量生成沿边撒点的最小间距（米）

	buildingSpawnPrefix = "building-" // 建筑联动生成点的ID前缀
	autoSpawnPrefix     = "auto-"     // 自动选取生成点的ID前缀
)

// 车辆类型的生成权重，按VehicleClass索引
var classWeights = []float64{
	entity.VehicleClassSedan:   0.45,
	entity.VehicleClassSUV:     0.25,
	entity.VehicleClassTruck:   0.1,
	entity.VehicleClassCompact: 0.2,
}

// Manager 车辆管理器
// 功能：车辆的生成、消亡、行为评估与位置推进
// 说明：生成与消亡通过增量数组延迟到PrepareNode统一生效，
// 保证一个模拟步内车辆集合稳定
type Manager struct {
	ctx entity.ITaskContext

	cars   *container.IncrementalArray[*Car]
	nextID int32

	spawnPoints []*spawnPoint
	spMtx       sync.Mutex

	blocked    map[int64]bool
	blockedMtx sync.RWMutex

	vicinityPoints []orb.Point

	liveCount      int32 // 含本步内已生成未提交的车辆
	totalSpawned   int64
	totalDespawned int64

	generator *randengine.Engine
}

// NewManager 创建车辆管理器
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:       ctx,
		cars:      container.NewIncrementalArray[*Car](),
		blocked:   map[int64]bool{},
		generator: randengine.New(ctx.RuntimeConfig().C.Seed + 2),
	}
}

// Init 初始化生成点
// 功能：从输入数据构建生成点列表
// 说明：未配置生成点时从路网随机选取若干节点自动补足，
// 每个生成点的首次生成时刻做随机错峰
func (m *Manager) Init(points []input.SpawnPoint) {
	cfg := m.ctx.RuntimeConfig().C.Spawn
	nowMs := m.ctx.Clock().Ms()
	for _, p := range points {
		rate := p.Rate
		if rate <= 0 {
			rate = cfg.DefaultRate
		}
		m.spawnPoints = append(m.spawnPoints, &spawnPoint{
			id:          p.ID,
			position:    orb.Point{p.Lon, p.Lat},
			rate:        rate,
			direction:   p.Direction,
			active:      true,
			lastSpawnMs: nowMs - m.generator.Float64()*60000/rate,
		})
	}
	if len(m.spawnPoints) == 0 {
		m.autoSpawnPoints(int(cfg.AutoSpawnPoints), cfg.DefaultRate, nowMs)
	}
	log.Infof("init %d spawn points", len(m.spawnPoints))
}

// autoSpawnPoints 自动选取生成点
// 说明：随机抽取路网边的起点节点，去重后作为生成点
func (m *Manager) autoSpawnPoints(count int, rate, nowMs float64) {
	roadNet := m.ctx.RoadNetManager()
	seen := map[int64]bool{}
	for i := 0; len(m.spawnPoints) < count && i < count*4; i++ {
		edge := roadNet.RandomEdge()
		if edge == nil {
			return
		}
		if seen[edge.FromID()] {
			continue
		}
		seen[edge.FromID()] = true
		node := roadNet.GetNode(edge.FromID())
		m.spawnPoints = append(m.spawnPoints, &spawnPoint{
			id:          fmt.Sprintf("%s%d", autoSpawnPrefix, len(m.spawnPoints)),
			position:    node.Position(),
			rate:        rate,
			active:      true,
			lastSpawnMs: nowMs - m.generator.Float64()*60000/rate,
		})
	}
}

// PrepareNode 执行车辆集合的增量更新
func (m *Manager) PrepareNode() {
	m.cars.Prepare()
}

// Prepare 并行更新所有车辆快照
func (m *Manager) Prepare() {
	parallel.GoFor(m.cars.Data(), func(c *Car) { c.prepare() })
}

// UpdateSpawn 生成阶段
// 功能：遍历生成点，对到期的生成点各生成一辆车
// 说明：场上车辆数（含本步已生成未提交的）达到上限后停止生成
func (m *Manager) UpdateSpawn(dt float64) {
	cfg := m.ctx.RuntimeConfig().C.Spawn
	nowMs := m.ctx.Clock().Ms()
	m.spMtx.Lock()
	defer m.spMtx.Unlock()
	for _, sp := range m.spawnPoints {
		if !sp.active {
			continue
		}
		if cfg.MaxCars > 0 && m.liveCount >= cfg.MaxCars {
			break
		}
		if !sp.due(nowMs, cfg.GlobalRate) {
			continue
		}
		sp.lastSpawnMs = nowMs
		m.spawnAt(sp.position)
	}
}

// spawnAt 在指定位置生成一辆车
// 算法说明：
// 1. 加权抽取目的地并规划避开封闭边的路线
// 2. 规划失败或路线退化为直连时，回退到随机单边的合成路线
// 3. 车辆类型按权重抽取，最高速度在类型基准上±25%抖动
// 返回：是否生成成功
func (m *Manager) spawnAt(pos orb.Point) bool {
	roadNet := m.ctx.RoadNetManager()
	dest := roadNet.RandomDestination()
	if dest == nil {
		return false
	}
	route := m.ctx.Router().FindRoute(pos, dest.Position(), m.BlockedEdges())
	if route == nil || route.Direct() {
		edge := roadNet.RandomEdge()
		if edge == nil {
			return false
		}
		route = syntheticRoute(edge)
	}
	m.addCar(dest, route)
	return true
}

// addCar 创建车辆并加入待提交列表
func (m *Manager) addCar(dest entity.IDestination, route *entity.Route) *Car {
	class := entity.VehicleClass(m.generator.DiscreteDistribution(classWeights))
	maxV := m.generator.Jitter(class.Profile().BaseMaxSpeed, maxSpeedJitter) / 3.6
	m.nextID++
	car := newCar(m.ctx, m.nextID, class, dest, route, maxV)
	m.cars.Add(car)
	m.liveCount++
	m.totalSpawned++
	return car
}

// syntheticRoute 单边合成路线
// 说明：路由不可达时的兜底，车辆沿这条边行驶到头后消亡
func syntheticRoute(edge entity.IRoadEdge) *entity.Route {
	return &entity.Route{
		NodeIDs:       []int64{edge.FromID(), edge.ToID()},
		Edges:         []entity.IRoadEdge{edge},
		Distance:      edge.Length(),
		EstimatedTime: edge.Length() / (edge.MaxSpeed() / 3.6),
		Waypoints:     edge.Geometry(),
	}
}

// despawn 标记车辆消亡
func (m *Manager) despawn(c *Car) {
	if c.despawned {
		return
	}
	c.despawned = true
	m.cars.Remove(c)
	m.liveCount--
	m.totalDespawned++
}

// ActiveVehicles 获取当前车辆集合的只读视图
func (m *Manager) ActiveVehicles() []entity.IVehicle {
	return lo.Map(m.cars.Data(), func(c *Car, _ int) entity.IVehicle { return c })
}

// UpdateBehavior 行为评估阶段
// 功能：并行评估所有车辆的行为并应用到各自的运行时速度
// 说明：评估只读取快照与碰撞网格，每辆车只写自己的运行时，
// 可以安全并行
func (m *Manager) UpdateBehavior(dt float64) {
	parallel.GoFor(m.cars.Data(), func(c *Car) {
		if c.despawned {
			return
		}
		c.applyBehavior(c.controller.update(dt), dt)
	})
}

// UpdatePositions 位置推进阶段
// 功能：按行为阶段更新后的速度推进所有车辆，
// 处理封闭边重路由与消亡判定
func (m *Manager) UpdatePositions(dt float64) {
	blocked := m.BlockedEdges()
	radius := m.ctx.RuntimeConfig().C.Spawn.DespawnRadius
	for _, c := range m.cars.Data() {
		if c.despawned {
			continue
		}
		c.rerouteIfBlocked(blocked)
		if c.updatePosition(dt, radius) {
			m.despawn(c)
		}
	}
}

// SetBlockedEdges 设置封闭边集合
// 说明：整体替换，传空列表即全部解除
func (m *Manager) SetBlockedEdges(edgeIDs []int64) {
	blocked := make(map[int64]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		blocked[id] = true
	}
	m.blockedMtx.Lock()
	m.blocked = blocked
	m.blockedMtx.Unlock()
	log.Debugf("blocked edges: %d", len(edgeIDs))
}

// BlockedEdges 获取当前封闭边集合
func (m *Manager) BlockedEdges() map[int64]bool {
	m.blockedMtx.RLock()
	defer m.blockedMtx.RUnlock()
	return m.blocked
}

// BurstSpawnNearBuildings 在指定点周边批量生成车辆
// 功能：放置建筑后立即制造周边交通，沿附近的边按最小间距撒点
// 参数：points-中心点列表，count-生成总数上限
func (m *Manager) BurstSpawnNearBuildings(points []orb.Point, count int) {
	cfg := m.ctx.RuntimeConfig().C.Spawn
	roadNet := m.ctx.RoadNetManager()
	spawned := 0
	for _, p := range points {
		for _, edge := range roadNet.FindEdgesNearPosition(p, burstEdgeRadius) {
			for s := burstSpacing / 2; s < edge.Length(); s += burstSpacing {
				if spawned >= count {
					return
				}
				if cfg.MaxCars > 0 && m.liveCount >= cfg.MaxCars {
					return
				}
				if m.spawnOnEdge(edge, s) {
					spawned++
				}
			}
		}
	}
	log.Infof("burst spawned %d vehicles near %d points", spawned, len(points))
}

// spawnOnEdge 在边上指定里程处生成一辆车
// 说明：路线从该里程的位置出发规划，路线仍以这条边开头时
// 保留里程，否则车辆吸附到路线起点
func (m *Manager) spawnOnEdge(edge entity.IRoadEdge, s float64) bool {
	roadNet := m.ctx.RoadNetManager()
	dest := roadNet.RandomDestination()
	if dest == nil {
		return false
	}
	pos := edge.PositionAt(s)
	route := m.ctx.Router().FindRoute(pos, dest.Position(), m.BlockedEdges())
	if route == nil || route.Direct() {
		route = syntheticRoute(edge)
	}
	car := m.addCar(dest, route)
	if len(route.Edges) > 0 && route.Edges[0].ID() == edge.ID() {
		car.placeOn(edge, s)
	}
	return true
}

// SetBuildingVicinitySpawning 开关建筑临近生成
// 功能：在每个建筑点附近的最近节点增设提速生成点，并提升
// 已有临近生成点的速率，持续生效直到显式清除
func (m *Manager) SetBuildingVicinitySpawning(points []orb.Point, enabled bool) {
	if !enabled {
		m.ClearBuildingVicinitySpawning()
		return
	}
	m.ClearBuildingVicinitySpawning()
	cfg := m.ctx.RuntimeConfig().C.Spawn
	roadNet := m.ctx.RoadNetManager()
	nowMs := m.ctx.Clock().Ms()
	m.spMtx.Lock()
	defer m.spMtx.Unlock()
	m.vicinityPoints = points
	for _, sp := range m.spawnPoints {
		sp.boosted = nearAny(sp.position, points, vicinityRadius)
	}
	for i, p := range points {
		node := roadNet.FindNearestNode(p)
		if node == nil {
			continue
		}
		m.spawnPoints = append(m.spawnPoints, &spawnPoint{
			id:          fmt.Sprintf("%s%d", buildingSpawnPrefix, i),
			position:    node.Position(),
			rate:        cfg.DefaultRate,
			active:      true,
			boosted:     true,
			lastSpawnMs: nowMs,
		})
	}
}

// ClearBuildingVicinitySpawning 清除建筑临近生成
func (m *Manager) ClearBuildingVicinitySpawning() {
	m.spMtx.Lock()
	defer m.spMtx.Unlock()
	m.vicinityPoints = nil
	m.removeSpawnPointsByPrefixLocked(buildingSpawnPrefix)
	for _, sp := range m.spawnPoints {
		sp.boosted = false
	}
}

// RemoveSpawnPointsByPrefix 按ID前缀移除生成点
func (m *Manager) RemoveSpawnPointsByPrefix(prefix string) {
	m.spMtx.Lock()
	defer m.spMtx.Unlock()
	m.removeSpawnPointsByPrefixLocked(prefix)
}

func (m *Manager) removeSpawnPointsByPrefixLocked(prefix string) {
	m.spawnPoints = lo.Filter(m.spawnPoints, func(sp *spawnPoint, _ int) bool {
		return !strings.HasPrefix(sp.id, prefix)
	})
}

// nearAny 判断点是否在任一中心点的半径内
func nearAny(pos orb.Point, centers []orb.Point, radius float64) bool {
	for _, c := range centers {
		if geomath.Distance(pos, c) <= radius {
			return true
		}
	}
	return false
}

// Snapshots 获取所有车辆的对外快照
func (m *Manager) Snapshots() []entity.VehicleSnapshot {
	return lo.Map(m.cars.Data(), func(c *Car, _ int) entity.VehicleSnapshot {
		return c.snapshotView()
	})
}

// Stats 获取生命周期统计信息
func (m *Manager) Stats() entity.SpawnerStats {
	m.spMtx.Lock()
	active := lo.CountBy(m.spawnPoints, func(sp *spawnPoint) bool { return sp.active })
	m.spMtx.Unlock()
	return entity.SpawnerStats{
		ActiveCars:        int32(m.cars.Len()),
		TotalSpawned:      m.totalSpawned,
		TotalDespawned:    m.totalDespawned,
		ActiveSpawnPoints: active,
	}
}
