// A small workload for trying funclock by hand:
//
//	go build -o work test/work.go
//	funclock -f 'main.spin@./work' ./work
package main

import "fmt"

//go:noinline
func spin(n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += i * i
	}
	return sum
}

func main() {
	total := 0
	for i := 0; i < 100; i++ {
		total += spin(1000000)
	}
	fmt.Println(total)
}
