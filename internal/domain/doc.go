// Package domain contains the core business entities, value objects, and
// domain logic of the application: vocabulary items, per-user memory states,
// review grades, lessons and quests. It is independent of any specific
// infrastructure or delivery mechanism.
package domain
