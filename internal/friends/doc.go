// Package friends 实现好友关系与欠款余额的存储、缓存和 HTTP 接口。
//
// 读路径为 cache-aside：先查 xcache，未命中再读 Store 并回填；
// 写路径成功后按用户前缀 ClearByPattern 失效该用户的全部缓存键。
//
// 缓存键：
//
//	friends:<user>:list            好友列表
//	friends:<user>:item:<friend>   单条好友关系
//
// Balance 以最小货币单位记录，正数表示好友欠当前用户。
package friends
