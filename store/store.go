package store

// 注意：此包只包含实现，接口定义在 core 包。
// 键值接口使用 core.Store / core.KeyValueStore；
// 领域接口（目录/事件/用户/模型）使用 core.CatalogStore 等，
// 内存实现见 catalog.go / events.go / users.go / models.go。
//
// 示例：
//   var kv core.KeyValueStore = NewMemoryStore()
//   var catalog core.CatalogStore = NewMemoryCatalog(nil)
