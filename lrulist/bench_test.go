package lrulist

import "testing"

// benchmarkChurn keeps the list at size n. Each iteration promotes one
// handle, evicts the coldest item and pushes it back in, so every handle in
// hs stays live.
func benchmarkChurn(b *testing.B, n int) {
	l := New[int]()
	hs := make([]*Handle[int], n)
	for i := range n {
		hs[i] = l.Push(i)
	}
	b.ReportAllocs()
	b.ResetTimer()

	i := 0
	for b.Loop() {
		if _, err := l.Access(hs[(i*7919)%n]); err != nil {
			b.Fatal(err)
		}
		v, err := l.PopTail()
		if err != nil {
			b.Fatal(err)
		}
		hs[v] = l.Push(v)
		i++
	}
}

func BenchmarkList_Churn_1k(b *testing.B)   { benchmarkChurn(b, 1_000) }
func BenchmarkList_Churn_100k(b *testing.B) { benchmarkChurn(b, 100_000) }

func BenchmarkList_PushPop(b *testing.B) {
	l := New[int]()
	b.ReportAllocs()
	for b.Loop() {
		for i := range 64 {
			l.Push(i)
		}
		_ = l.Pop(64)
	}
}
