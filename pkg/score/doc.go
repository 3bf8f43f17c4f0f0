// Package score turns raw activity counts into normalized factors and
// combines them into a 0-100 reputation score. It exposes
// [NormalizePushes], [NormalizeTx], [Factors] and [Calculator].
package score
