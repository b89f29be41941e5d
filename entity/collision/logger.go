package collision

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "collision")
