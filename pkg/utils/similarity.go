package utils

// Ratio 计算两个字符串的相似度，取值 [0, 1]。
// 采用 Ratcliff/Obershelp 算法（与 Python difflib.SequenceMatcher.ratio 同源）：
// 递归寻找最长公共子串，ratio = 2*M / (len(a)+len(b))，M 为匹配字符总数。
// 用于搜索召回中的模糊 token 匹配（阈值见 config.FuzzyThreshold）。
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matched := matchingRunes(ra, rb)
	return 2 * float64(matched) / float64(total)
}

// matchingRunes 返回 Ratcliff/Obershelp 意义下的匹配字符数：
// 最长公共子串长度，加上其左右两侧子序列的递归匹配数。
func matchingRunes(a, b []rune) int {
	length, ai, bi := longestCommonBlock(a, b)
	if length == 0 {
		return 0
	}
	m := length
	m += matchingRunes(a[:ai], b[:bi])
	m += matchingRunes(a[ai+length:], b[bi+length:])
	return m
}

// longestCommonBlock 返回 a、b 的最长公共子串长度及其起始下标。
// token 级比较长度很小，O(len(a)*len(b)) 的动态规划足够。
func longestCommonBlock(a, b []rune) (length, ai, bi int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > length {
					length = cur[j]
					ai = i - length
					bi = j - length
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return length, ai, bi
}
