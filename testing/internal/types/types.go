package types

// TestingTB is the subset of testing.TB the fixtures need. Accepting an interface lets the
// fixtures be driven by other runners, such as ginkgo's GinkgoT.
type TestingTB interface {
	Cleanup(func())
	Fail()
	FailNow()
	Failed() bool
	Fatal(args ...interface{})
	Helper()
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Name() string
	Skip(args ...interface{})
}
