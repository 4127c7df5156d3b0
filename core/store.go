package core

import "context"

// Store 是存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//   - 避免循环依赖：领域层不依赖基础设施层
//
// 使用场景：
//   - 偏好存储：用户学习到的类型权重与偏好向量
//   - 会话存储：双人匹配会话状态
//   - 反馈流水：按时间排序的反馈事件
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取（减少网络往返）
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持更丰富的 KV 操作。
//
// 扩展功能：
//   - 有序集合（SortedSet）：用于反馈事件时间线
//   - 哈希表（Hash）：用于影片目录
//
// 如果后端不支持某些操作，可返回 ErrStoreNotSupported。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员（用于反馈时间线，score 通常取时间戳）
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按分数降序获取有序集合成员（用于最近反馈窗口）
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// HGet 读取 Hash 字段（用于影片元数据）
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HSet 写入 Hash 字段
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGetAll 读取整个 Hash（用于候选集生成的全量扫描）
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
}

// AtomicStore 支持对单个 key 的原子读-改-写。
//
// 偏好更新与会话更新都是非交换操作（学习率依赖累计交互数），
// 两个并发反馈交错读写会悄无声息地吞掉其中一次的效果，
// 因此这两类行必须走 Update 而不是 Get+Set。
//
// 实现约定：
//   - fn 接收当前值（key 不存在时为 nil），返回新值
//   - fn 返回错误时不写入并透传该错误
//   - 不同 key 之间相互独立，无需全局锁
//   - 冲突时实现方可重试（乐观锁）或阻塞（行锁），对调用方透明
type AtomicStore interface {
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)

// IsStoreNotFound 检查错误是否为 key 不存在
func IsStoreNotFound(err error) bool {
	if err == nil {
		return false
	}
	domainErr := GetDomainError(err)
	if domainErr != nil && domainErr.Module == ModuleStore {
		return domainErr.Code == ErrorCodeNotFound
	}
	return false
}
