/*
Package reflex is a small reactive rule engine for conversational robots.

Rules are written in a compact text language. Each rule pairs a condition with a
list of actions:

	[Memory.getStateParam("interactionState") == "asrReceived" AND PatternMatch("hello*", Memory.getStateParam("lastAsrResult")) -->
	    TTS.speak("Hi there"); Memory.setStateParam("interactionState", "idle")]

The engine keeps the parsed rule set and evaluates every rule on a fixed cadence
(200ms by default). Conditions read a timestamped state store ("Memory"); actions
write to it or call named capabilities such as TTS, Move or HuggingFace.

# Concept

The host application owns the robot and feeds events into the engine:

  - OnWakeupWord marks the interaction as active.
  - OnAsrResult stores the recognized text, its language and sets interactionState to asrReceived.

Rules react to those Memory changes. Rule text can be replaced at any time with
Reload; the loop swaps the whole rule set at the start of its next tick.

# Usage

	reg := registry.NewRegistry()
	_ = skills.RegisterAll(reg, skills.Deps{Robot: myRobot}, nil)

	eng := reflex.New(rulesText, reflex.WithRegistry(reg))
	if err := eng.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer eng.Stop()

	// Later, from the robot SDK callbacks:
	_ = eng.OnAsrResult(ctx, "go to the kitchen", "en-US")
*/
package reflex
