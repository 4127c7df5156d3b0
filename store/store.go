package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store、core.KeyValueStore 与 core.AtomicStore 接口。
//
// 示例：
//   var kv core.KeyValueStore = NewMemoryStore()
//   repo := NewRepo(kv)   // 领域适配：画像/会话/反馈/影片目录
