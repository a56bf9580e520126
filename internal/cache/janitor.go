package cache

import "time"

// startJanitor launches the background sweep goroutine when a cleanup
// interval is configured.
func (c *Cache) startJanitor() {
	if c.cfg.CleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.deleteExpired()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the janitor goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}
