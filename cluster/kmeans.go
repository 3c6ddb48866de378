// Package cluster 实现离线用户行为聚类：按 (类目点击分布 ++ 平均点击价格)
// 的用户向量做 k-means 划分，批量覆盖写回簇分配。
package cluster

import "math"

// kmeans 对样本做 k 均值划分，返回每个样本的簇标号。
//
// 初始质心取样本序列中均匀间隔的 k 个点（样本序按 user id 排序后固定），
// 同一输入必然产出同一划分，保证重训可复现、任务可幂等重跑。
func kmeans(points [][]float64, k, maxIterations int) []int {
	n := len(points)
	labels := make([]int, n)
	if n == 0 || k <= 1 {
		return labels
	}

	dims := len(points[0])
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		src := points[i*n/k]
		centroids[i] = append([]float64(nil), src...)
	}

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		// 重算质心；空簇保留旧质心
		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dims)
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := 0; d < dims; d++ {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return labels
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		d := squaredDistance(p, centroid)
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
