package mergecmder

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMergeCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Merge Command Suite")
}
