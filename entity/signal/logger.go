package signal

import "github.com/sirupsen/logrus"

var log = logrus.WithField("module", "signal")
